package bitmaptool

import "image"

// Options controls a single decode pass, and receives what the decoder learned about the source.
type Options struct {
	// Only read the header. No pixels are materialized and Decode returns a nil image.
	JustDecodeBounds bool

	// Integer divisor applied to both axes when materializing. Values below 1 are treated as 1.
	SampleSize int

	// Filled in by the decoder. For a bounds pass these are the intrinsic dimensions,
	// otherwise they are the dimensions of the returned image.
	OutWidth  int
	OutHeight int
	OutFormat string
}

func (o *Options) sampleSize() int {
	if o.SampleSize < 1 {
		return 1
	}
	return o.SampleSize
}

// BitmapDecoder decodes a bitmap from one kind of source handle.
// Decode must be callable more than once on the same source.
type BitmapDecoder[T any] interface {
	Decode(src T, opts *Options) (image.Image, error)
}
