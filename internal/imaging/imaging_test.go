package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func fill(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func createTestJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, fill(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestProcessPhotoJPEG(t *testing.T) {
	result, err := ProcessPhoto(bytes.NewReader(createTestJPEG(100, 100)))
	if err != nil {
		t.Fatalf("ProcessPhoto JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" || result.Ext != "jpg" {
		t.Errorf("expected image/jpeg, got %s (%s)", result.MIME, result.Ext)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestProcessPhotoPNGBecomesJPEG(t *testing.T) {
	result, err := ProcessPhoto(bytes.NewReader(encodePNG(fill(100, 100, color.RGBA{0, 0, 255, 255}))))
	if err != nil {
		t.Fatalf("ProcessPhoto PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
}

func TestProcessPhotoDownscale(t *testing.T) {
	result, err := ProcessPhoto(bytes.NewReader(createTestJPEG(3200, 1600)))
	if err != nil {
		t.Fatalf("ProcessPhoto large image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != MaxDimension || bounds.Dy() != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, bounds.Dx(), bounds.Dy())
	}
}

func TestProcessPhotoSmallImageNotUpscaled(t *testing.T) {
	result, err := ProcessPhoto(bytes.NewReader(createTestJPEG(50, 50)))
	if err != nil {
		t.Fatalf("ProcessPhoto small image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("small image should not be resized: got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestProcessPhotoRejectsOtherFormats(t *testing.T) {
	for name, data := range map[string][]byte{
		"text": []byte("not an image"),
		"gif":  []byte("GIF89a..."),
	} {
		if _, err := ProcessPhoto(bytes.NewReader(data)); err == nil {
			t.Errorf("expected error for %s", name)
		}
	}
}

func TestProcessSignatureKeepsPNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 80))
	for x := 20; x < 180; x++ {
		img.Set(x, 40, color.Black)
	}

	result, err := ProcessSignature(bytes.NewReader(encodePNG(img)))
	if err != nil {
		t.Fatalf("ProcessSignature: %v", err)
	}
	if result.MIME != "image/png" || result.Ext != "png" {
		t.Errorf("expected image/png, got %s (%s)", result.MIME, result.Ext)
	}
}

func TestProcessSignatureRejectsBlank(t *testing.T) {
	blank := image.NewNRGBA(image.Rect(0, 0, 200, 80))

	_, err := ProcessSignature(bytes.NewReader(encodePNG(blank)))
	if !errors.Is(err, ErrBlankSignature) {
		t.Errorf("expected ErrBlankSignature, got %v", err)
	}
}

func TestIsBlank(t *testing.T) {
	white := fill(10, 10, color.White)
	if !IsBlank(white) {
		t.Error("expected plain white image to be blank")
	}

	white.Set(5, 5, color.Black)
	if IsBlank(white) {
		t.Error("expected image with a stroke not to be blank")
	}

	if !IsBlank(image.NewRGBA(image.Rect(0, 0, 0, 0))) {
		t.Error("expected empty image to be blank")
	}
}
