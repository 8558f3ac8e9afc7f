// Package imagestore keeps uploaded images on the server until an
// inspection is completed, and pushes them to permanent storage.
package imagestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalPrefix marks an image reference that has not been uploaded yet.
const LocalPrefix = "local://"

// ErrInvalidRef is returned for references that do not name a staged file.
var ErrInvalidRef = errors.New("invalid local image reference")

// Staging is a directory of processed uploads waiting to be pushed to a
// Sink.
type Staging struct {
	Dir string
}

// NewStaging creates dir if needed.
func NewStaging(dir string) (*Staging, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	return &Staging{Dir: dir}, nil
}

// Save writes data under a fresh name and returns its local reference,
// e.g. "local://<uuid>.jpg".
func (s *Staging) Save(data []byte, ext string) (string, error) {
	name := uuid.NewString() + "." + strings.TrimPrefix(ext, ".")
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o640); err != nil {
		return "", fmt.Errorf("staging image: %w", err)
	}
	return LocalPrefix + name, nil
}

// Read returns the staged bytes and file name for ref.
func (s *Staging) Read(ref string) ([]byte, string, error) {
	name, err := refName(ref)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, "", fmt.Errorf("reading staged image %s: %w", ref, err)
	}
	return data, name, nil
}

// Check reports whether ref names a staged file that still exists.
func (s *Staging) Check(ref string) error {
	name, err := refName(ref)
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(s.Dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%q: no staged file: %w", ref, ErrInvalidRef)
		}
		return fmt.Errorf("checking staged image %s: %w", ref, err)
	}
	return nil
}

// Remove deletes the staged files behind refs. References that are not
// local or are already gone are skipped.
func (s *Staging) Remove(refs ...string) error {
	var errs []error
	for _, ref := range refs {
		name, err := refName(ref)
		if err != nil {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("removing %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Prune removes staged files older than maxAge and returns how many were
// removed. Files whose reference is in keep stay regardless of age.
func (s *Staging) Prune(maxAge time.Duration, keep map[string]bool) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, fmt.Errorf("listing staging directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		if info.ModTime().After(cutoff) || keep[LocalPrefix+e.Name()] {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("removing %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// refName extracts the file name from a local reference. Only a bare
// "<uuid>.<ext>" is accepted.
func refName(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, LocalPrefix)
	if !ok || name == "" {
		return "", fmt.Errorf("%q: %w", ref, ErrInvalidRef)
	}
	if filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%q: %w", ref, ErrInvalidRef)
	}

	id, ext, ok := strings.Cut(name, ".")
	if !ok || ext == "" || strings.Contains(ext, ".") {
		return "", fmt.Errorf("%q: %w", ref, ErrInvalidRef)
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%q: %w", ref, ErrInvalidRef)
	}
	return name, nil
}
