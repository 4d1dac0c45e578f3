// Package image provides loading of base and reference images.
package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Base is the loaded base image a scene is drawn over.
type Base struct {
	Path   string      // Original file path
	Image  image.Image // Decoded pixel data
	Width  int         // Pixel width
	Height int         // Pixel height
}

// Load decodes an image from the specified path. A corrupt or unsupported
// file is a load failure; callers keep their current scene in that case.
func Load(path string) (*Base, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	bounds := img.Bounds()
	return &Base{
		Path:   path,
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// Decode decodes an image from raw bytes, for images that arrive without
// a file path (e.g. a generation result).
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
