package image

import (
	"bytes"
	goimage "image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, goimage.NewRGBA(goimage.Rect(0, 0, 20, 10))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	base, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if base.Width != 20 || base.Height != 10 {
		t.Errorf("dimensions = %dx%d, want 20x10", base.Width, base.Height)
	}
	if base.Path != path {
		t.Errorf("path = %q", base.Path)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted a corrupt file")
	}
}

func TestDecodeBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, goimage.NewRGBA(goimage.Rect(0, 0, 5, 5))); err != nil {
		t.Fatal(err)
	}
	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 5 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
}
