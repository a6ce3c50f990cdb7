package bitmaptool

import (
	"fmt"
	"image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Codec is the host image decoder. ReadBitmap never decodes pixels itself.
type Codec interface {
	// Read only the header of r
	DecodeConfig(r io.Reader) (image.Config, string, error)

	// Decode r, reducing both axes by sampleSize
	Decode(r io.Reader, sampleSize int) (image.Image, string, error)
}

// DefaultCodec is used by the ReadBitmapFrom* functions, and by any decoder whose Codec is nil.
var DefaultCodec Codec = StdCodec{}

// StdCodec decodes through the image format registry.
// JPEG, PNG, GIF, BMP, TIFF and WebP are registered.
type StdCodec struct {
	// Scaler used for subsampling. Defaults to draw.ApproxBiLinear.
	Scaler draw.Scaler
}

func (c StdCodec) DecodeConfig(r io.Reader) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("decode config: %w", err)
	}
	return cfg, format, nil
}

func (c StdCodec) Decode(r io.Reader, sampleSize int) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode: %w", err)
	}
	scaler := c.Scaler
	if scaler == nil {
		scaler = draw.ApproxBiLinear
	}
	return subsample(img, sampleSize, scaler), format, nil
}

// SubsampledSize returns the dimensions produced by reducing (width, height) by factor.
// Neither axis drops below 1.
func SubsampledSize(width, height, factor int) (int, int) {
	if factor <= 1 {
		return width, height
	}
	return max(1, width/factor), max(1, height/factor)
}

// Subsample reduces img by an integer factor on both axes.
// A factor of 1 or less returns img unchanged.
func Subsample(img image.Image, factor int) image.Image {
	return subsample(img, factor, draw.ApproxBiLinear)
}

func subsample(img image.Image, factor int, scaler draw.Scaler) image.Image {
	if img == nil || factor <= 1 {
		return img
	}
	b := img.Bounds()
	w, h := SubsampledSize(b.Dx(), b.Dy(), factor)
	rect := image.Rect(0, 0, w, h)
	var dst draw.Image
	if _, ok := img.(*image.Gray); ok {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewRGBA(rect)
	}
	scaler.Scale(dst, rect, img, b, draw.Src, nil)
	return dst
}
