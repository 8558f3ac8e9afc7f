package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/erazemk/inspecasa/internal/db"
)

func TestPutAndGetImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	img := &Image{ID: "abc", Kind: "images", Name: "abc.jpg", MIME: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}
	if err := PutImage(ctx, database, img); err != nil {
		t.Fatalf("PutImage: %v", err)
	}

	got, err := GetImage(ctx, database, "abc")
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if got == nil {
		t.Fatal("expected image, got nil")
	}
	if got.MIME != "image/jpeg" || !bytes.Equal(got.Data, img.Data) {
		t.Errorf("unexpected image: %+v", got)
	}

	img.Data = []byte{1, 2, 3}
	if err := PutImage(ctx, database, img); err != nil {
		t.Fatalf("PutImage (replace): %v", err)
	}
	got, _ = GetImage(ctx, database, "abc")
	if !bytes.Equal(got.Data, []byte{1, 2, 3}) {
		t.Errorf("expected replaced data, got %v", got.Data)
	}

	missing, err := GetImage(ctx, database, "nope")
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing image")
	}
}
