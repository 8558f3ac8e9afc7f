package imagestore

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"strings"

	"github.com/erazemk/inspecasa/internal/store"
)

// Sink is permanent image storage.
type Sink interface {
	// Put stores data under kind/name and returns its public URL.
	Put(ctx context.Context, kind, name string, data []byte, mime string) (string, error)
}

// Image kinds, used as storage folders.
const (
	KindImages     = "images"
	KindSignatures = "signatures"
)

// SQLiteSink stores images in the application database. They are served
// by the API at /api/images/{id}.
type SQLiteSink struct {
	DB        *sql.DB
	PublicURL string
}

func (s *SQLiteSink) Put(ctx context.Context, kind, name string, data []byte, mime string) (string, error) {
	id := strings.TrimSuffix(name, path.Ext(name))
	err := store.PutImage(ctx, s.DB, &store.Image{
		ID:   id,
		Kind: kind,
		Name: name,
		MIME: mime,
		Data: data,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/api/images/%s", strings.TrimSuffix(s.PublicURL, "/"), id), nil
}
