// Package cover prepares cover images for ebook packages.
package cover

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Largest cover kept as is. Bigger covers are scaled down to fit.
const (
	MaxWidth  = 1600
	MaxHeight = 2560
)

// Sentinel errors for cover preparation.
var (
	ErrReadCover        = errors.New("failed to read cover")
	ErrUnsupportedImage = errors.New("unsupported cover image")
)

// Image is a cover ready to be packaged.
type Image struct {
	Data      []byte
	MediaType string
	Width     int
	Height    int
}

// mediaTypes lists formats kept in their original encoding.
var mediaTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

// Load reads and prepares the cover at path.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided cover path
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadCover, path, err)
	}
	img, err := Prepare(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Prepare validates a cover image.
// JPEG, PNG and GIF images within MaxWidth x MaxHeight are returned
// untouched. Larger images are scaled to fit and other formats such as
// WebP are re-encoded as JPEG.
func Prepare(data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	mediaType, keep := mediaTypes[format]
	if keep && cfg.Width <= MaxWidth && cfg.Height <= MaxHeight {
		return &Image{Data: data, MediaType: mediaType, Width: cfg.Width, Height: cfg.Height}, nil
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width > MaxWidth || cfg.Height > MaxHeight {
		src = imaging.Fit(src, MaxWidth, MaxHeight, imaging.Lanczos)
	}

	outFormat, outType := imaging.JPEG, "image/jpeg"
	if format == "png" {
		outFormat, outType = imaging.PNG, "image/png"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, outFormat, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("%w: encoding: %v", ErrUnsupportedImage, err)
	}
	b := src.Bounds()
	return &Image{Data: buf.Bytes(), MediaType: outType, Width: b.Dx(), Height: b.Dy()}, nil
}
