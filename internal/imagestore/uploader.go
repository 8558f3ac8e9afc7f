package imagestore

import (
	"context"
	"log/slog"
	"mime"
	"path"

	"github.com/erazemk/inspecasa/internal/inspection"
)

var (
	_ inspection.ImageStore = (*Uploader)(nil)
	_ inspection.RefChecker = (*Uploader)(nil)
	_ inspection.Releaser   = (*Uploader)(nil)
)

// Uploader moves staged images to a Sink.
type Uploader struct {
	Staging *Staging
	Sink    Sink
}

// Upload pushes the staged file behind ref to the sink and returns its
// public URL. PNG files are signatures, everything else is a photo.
func (u *Uploader) Upload(ctx context.Context, ref string) (string, error) {
	data, name, err := u.Staging.Read(ref)
	if err != nil {
		return "", err
	}

	kind := KindImages
	ext := path.Ext(name)
	if ext == ".png" {
		kind = KindSignatures
	}
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	url, err := u.Sink.Put(ctx, kind, name, data, mimeType)
	if err != nil {
		return "", err
	}
	slog.Debug("image uploaded", "ref", ref, "url", url)
	return url, nil
}

// CheckRef accepts only references to files that are currently staged.
func (u *Uploader) CheckRef(ref string) error {
	return u.Staging.Check(ref)
}

// Release removes staged files that have been uploaded.
func (u *Uploader) Release(refs []string) error {
	return u.Staging.Remove(refs...)
}
