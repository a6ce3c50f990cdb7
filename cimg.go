package bitmaptool

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/bmharper/cimg/v2"
)

// Formats that cimg.Decompress reads natively, keyed by their magic bytes
var cimgFormats = []struct {
	name  string
	magic []byte
}{
	{"jpeg", []byte{0xff, 0xd8, 0xff}},
	{"png", []byte("\x89PNG\r\n\x1a\n")},
	{"tiff", []byte("II*\x00")},
	{"tiff", []byte("MM\x00*")},
}

func cimgFormat(data []byte) string {
	for _, f := range cimgFormats {
		if bytes.HasPrefix(data, f.magic) {
			return f.name
		}
	}
	return ""
}

// CimgCodec decodes JPEG, PNG and TIFF with cimg, and resamples every format through cimg.
// Headers, and bodies in any other format, are read by Fallback.
type CimgCodec struct {
	Fallback Codec // nil means StdCodec{}
}

func (c CimgCodec) fallback() Codec {
	if c.Fallback == nil {
		return StdCodec{}
	}
	return c.Fallback
}

func (c CimgCodec) DecodeConfig(r io.Reader) (image.Config, string, error) {
	return c.fallback().DecodeConfig(r)
}

func (c CimgCodec) Decode(r io.Reader, sampleSize int) (image.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read: %w", err)
	}
	format := cimgFormat(data)
	if format == "" {
		img, format, err := c.fallback().Decode(bytes.NewReader(data), 1)
		if err != nil {
			return nil, "", err
		}
		if sampleSize <= 1 {
			return img, format, nil
		}
		ci, err := cimg.FromImage(img, true)
		if err != nil {
			return nil, "", fmt.Errorf("cimg wrap: %w", err)
		}
		out, err := shrink(ci, sampleSize).ToImage()
		if err != nil {
			return nil, "", fmt.Errorf("cimg convert: %w", err)
		}
		return out, format, nil
	}
	ci, err := cimg.Decompress(data)
	if err != nil {
		return nil, "", fmt.Errorf("cimg decompress: %w", err)
	}
	out, err := shrink(ci, sampleSize).ToImage()
	if err != nil {
		return nil, "", fmt.Errorf("cimg convert: %w", err)
	}
	return out, format, nil
}

func shrink(img *cimg.Image, factor int) *cimg.Image {
	w, h := SubsampledSize(img.Width, img.Height, factor)
	if w == img.Width && h == img.Height {
		return img
	}
	return cimg.ResizeNew(img, w, h, nil)
}
