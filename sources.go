package bitmaptool

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"io/fs"
	"math"
	"os"
)

// Run one pass of opts against r
func decodePass(codec Codec, r io.Reader, opts *Options) (image.Image, error) {
	if codec == nil {
		codec = DefaultCodec
	}
	if opts.JustDecodeBounds {
		cfg, format, err := codec.DecodeConfig(r)
		if err != nil {
			return nil, err
		}
		opts.OutWidth = cfg.Width
		opts.OutHeight = cfg.Height
		opts.OutFormat = format
		return nil, nil
	}
	opts.OutWidth, opts.OutHeight = 0, 0
	img, format, err := codec.Decode(r, opts.sampleSize())
	if err != nil {
		return nil, err
	}
	opts.OutFormat = format
	if img != nil {
		opts.OutWidth = img.Bounds().Dx()
		opts.OutHeight = img.Bounds().Dy()
	}
	return img, nil
}

// FilePathDecoder opens the named file for every pass
type FilePathDecoder struct {
	Codec Codec
}

func (d FilePathDecoder) Decode(path string, opts *Options) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodePass(d.Codec, f, opts)
}

// FileDecoder reads an already open file from its current offset.
// The offset of the file is left untouched, so the same file can be decoded again.
type FileDecoder struct {
	Codec Codec
}

func (d FileDecoder) Decode(f *os.File, opts *Options) (image.Image, error) {
	if f == nil {
		return nil, ErrNilSource
	}
	offset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("file offset of %v: %w", f.Name(), err)
	}
	return decodePass(d.Codec, io.NewSectionReader(f, offset, math.MaxInt64-offset), opts)
}

// StreamDecoder seeks back to the position the stream had when it was first seen, before every pass.
// Streams that cannot seek cannot be decoded twice, and are not accepted.
type StreamDecoder struct {
	Codec Codec

	start   int64
	started bool
}

// NewStreamDecoder records the current position of r as the start of the image
func NewStreamDecoder(r io.ReadSeeker, codec Codec) (*StreamDecoder, error) {
	if r == nil {
		return nil, ErrNilSource
	}
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSeekable, err)
	}
	return &StreamDecoder{Codec: codec, start: pos, started: true}, nil
}

func (d *StreamDecoder) Decode(r io.ReadSeeker, opts *Options) (image.Image, error) {
	if r == nil {
		return nil, ErrNilSource
	}
	if !d.started {
		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotSeekable, err)
		}
		d.start, d.started = pos, true
	}
	if _, err := r.Seek(d.start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSeekable, err)
	}
	return decodePass(d.Codec, r, opts)
}

// BytesDecoder decodes an in-memory encoded image
type BytesDecoder struct {
	Codec Codec
}

func (d BytesDecoder) Decode(data []byte, opts *Options) (image.Image, error) {
	if data == nil {
		return nil, ErrNilSource
	}
	return decodePass(d.Codec, bytes.NewReader(data), opts)
}

// Resource is a named image inside a packaged file system, such as an embed.FS
type Resource struct {
	FS   fs.FS
	Name string
}

func (r Resource) String() string {
	return r.Name
}

// ResourceDecoder opens the resource for every pass
type ResourceDecoder struct {
	Codec Codec
}

func (d ResourceDecoder) Decode(res Resource, opts *Options) (image.Image, error) {
	if res.FS == nil {
		return nil, ErrNilSource
	}
	if res.Name == "" {
		return nil, ErrEmptyResource
	}
	f, err := res.FS.Open(res.Name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodePass(d.Codec, f, opts)
}
