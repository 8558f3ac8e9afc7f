package imagestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	kind, name, mime string
	data             []byte
}

func (s *recordingSink) Put(_ context.Context, kind, name string, data []byte, mime string) (string, error) {
	s.kind, s.name, s.data, s.mime = kind, name, data, mime
	return "https://cdn.example.com/" + kind + "/" + name, nil
}

func TestUploaderPhotoAndSignature(t *testing.T) {
	staging, err := NewStaging(t.TempDir())
	require.NoError(t, err)
	sink := &recordingSink{}
	u := &Uploader{Staging: staging, Sink: sink}

	photo, err := staging.Save([]byte("jpeg"), "jpg")
	require.NoError(t, err)
	url, err := u.Upload(context.Background(), photo)
	require.NoError(t, err)
	assert.Equal(t, KindImages, sink.kind)
	assert.Equal(t, "image/jpeg", sink.mime)
	assert.Equal(t, []byte("jpeg"), sink.data)
	assert.Equal(t, "https://cdn.example.com/images/"+sink.name, url)

	sig, err := staging.Save([]byte("png"), "png")
	require.NoError(t, err)
	_, err = u.Upload(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, KindSignatures, sink.kind)
	assert.Equal(t, "image/png", sink.mime)
}

func TestUploaderUnknownRef(t *testing.T) {
	staging, err := NewStaging(t.TempDir())
	require.NoError(t, err)
	u := &Uploader{Staging: staging, Sink: &recordingSink{}}

	_, err = u.Upload(context.Background(), "local://../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidRef)
}

func TestUploaderCheckAndRelease(t *testing.T) {
	staging, err := NewStaging(t.TempDir())
	require.NoError(t, err)
	u := &Uploader{Staging: staging, Sink: &recordingSink{}}

	ref, err := staging.Save([]byte("jpeg"), "jpg")
	require.NoError(t, err)
	require.NoError(t, u.CheckRef(ref))
	assert.ErrorIs(t, u.CheckRef("file:///sdcard/IMG_1.jpg"), ErrInvalidRef)

	_, err = u.Upload(context.Background(), ref)
	require.NoError(t, err)
	require.NoError(t, u.Release([]string{ref}))
	assert.ErrorIs(t, u.CheckRef(ref), ErrInvalidRef)
}
