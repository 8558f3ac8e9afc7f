package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Image is a stored image blob.
type Image struct {
	ID   string
	Kind string
	Name string
	MIME string
	Data []byte
}

// PutImage stores an image blob under img.ID, replacing any earlier one.
func PutImage(ctx context.Context, db *sql.DB, img *Image) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO images (id, kind, name, mime, data) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET kind = excluded.kind, name = excluded.name,
		     mime = excluded.mime, data = excluded.data`,
		img.ID, img.Kind, img.Name, img.MIME, img.Data,
	)
	if err != nil {
		return fmt.Errorf("storing image: %w", err)
	}
	return nil
}

// GetImage returns an image by ID.
func GetImage(ctx context.Context, db *sql.DB, id string) (*Image, error) {
	img := &Image{}
	err := db.QueryRowContext(ctx,
		`SELECT id, kind, name, mime, data FROM images WHERE id = ?`, id,
	).Scan(&img.ID, &img.Kind, &img.Name, &img.MIME, &img.Data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting image: %w", err)
	}
	return img, nil
}
