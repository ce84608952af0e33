// Package imaging normalizes uploaded avatars.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// decoders for the accepted upload formats
	_ "image/gif"
	_ "image/jpeg"

	"github.com/atinyakov/taskmanager/internal/models"
	"golang.org/x/image/draw"
)

// DefaultMaxPixels caps the declared canvas of an upload before it is decoded.
const DefaultMaxPixels = 16_000_000

// Resizer scales images to a fixed size and re-encodes them as PNG.
type Resizer struct {
	Width  int
	Height int

	// MaxPixels bounds width*height of the source image.
	MaxPixels int
}

// NewResizer returns a Resizer producing width x height images.
func NewResizer(width, height int) *Resizer {
	return &Resizer{Width: width, Height: height, MaxPixels: DefaultMaxPixels}
}

// Process decodes data, scales it and returns the PNG encoding. Data that is
// not a PNG, JPEG or GIF image yields a validation error.
func (r *Resizer) Process(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, notAnImage()
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(r.MaxPixels) {
		return nil, &models.ValidationError{Fields: map[string]string{"avatar": "image dimensions are too large"}}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, notAnImage()
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

func notAnImage() error {
	return &models.ValidationError{Fields: map[string]string{"avatar": "please upload an image"}}
}
