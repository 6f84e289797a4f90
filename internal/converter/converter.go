// Package converter renders document files into PNG preview images.
package converter

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	// registers the WebP decoder with image.Decode
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for files that cannot be decoded as an image
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Limits of the interactive transformations
const (
	ZoomMin = 25
	ZoomMax = 300
	// MaxDimension bounds the width and height of a rendered image
	MaxDimension = 8192
)

// Transformation changes an image before it is encoded
type Transformation interface {
	Name() string
	Apply(img image.Image) image.Image
}

// Resize fits the image inside Width x Height, keeping the aspect ratio.
// A zero Height derives it from the aspect ratio. Images are never enlarged.
type Resize struct {
	Width  int
	Height int
}

// Name implements Transformation
func (Resize) Name() string { return "resize" }

// Apply implements Transformation
func (t Resize) Apply(img image.Image) image.Image {
	if t.Width <= 0 {
		return img
	}
	bounds := img.Bounds()
	if t.Height <= 0 {
		if bounds.Dx() <= t.Width {
			return img
		}
		return imaging.Resize(img, t.Width, 0, imaging.Lanczos)
	}
	return imaging.Fit(img, t.Width, t.Height, imaging.Lanczos)
}

// Rotate turns the image clockwise by Degrees
type Rotate struct {
	Degrees float64
}

// Name implements Transformation
func (Rotate) Name() string { return "rotate" }

// Apply implements Transformation
func (t Rotate) Apply(img image.Image) image.Image {
	degrees := math.Mod(t.Degrees, 360)
	if degrees == 0 {
		return img
	}
	// imaging rotates counter-clockwise
	return imaging.Rotate(img, 360-degrees, color.Transparent)
}

// Zoom scales the image by Percent, clamped to ZoomMin..ZoomMax.
// The result never exceeds MaxDimension on either side.
type Zoom struct {
	Percent float64
}

// Name implements Transformation
func (Zoom) Name() string { return "zoom" }

// Apply implements Transformation
func (t Zoom) Apply(img image.Image) image.Image {
	if t.Percent <= 0 || t.Percent == 100 {
		return img
	}
	percent := math.Min(math.Max(t.Percent, ZoomMin), ZoomMax)
	bounds := img.Bounds()
	// keep the larger side inside MaxDimension
	if longest := float64(max(bounds.Dx(), bounds.Dy())); longest*percent/100 > MaxDimension {
		percent = MaxDimension * 100 / longest
	}
	width := int(math.Round(float64(bounds.Dx()) * percent / 100))
	if width < 1 {
		width = 1
	}
	if width == bounds.Dx() {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

// Converter decodes files and encodes transformed previews
type Converter struct{}

// New creates a Converter
func New() *Converter {
	return &Converter{}
}

// Convert decodes r, applies the transformations in order and returns the PNG encoding
func (c *Converter) Convert(r io.Reader, transformations ...Transformation) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	for _, t := range transformations {
		img = t.Apply(img)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
