package bitmaptool

import (
	"fmt"
	"image"
	"io"
	"io/fs"
	"math"
	"os"

	"github.com/sirupsen/logrus"
)

var log logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger that receives decode failures. Passing nil restores the logrus standard logger.
// It is not safe to call concurrently with a decode.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	log = l
}

// CalculateSampleSize returns the integer subsample factor for an image of
// srcWidth x srcHeight that should fit within width x height.
// The factor is taken from the shorter side of the source, so the longer side may still exceed its bound.
// A zero bound on that side shrinks the image as far as it goes, a negative one disables shrinking.
// The result is always at least 1.
func CalculateSampleSize(srcWidth, srcHeight, width, height int) int {
	if srcWidth <= 0 || srcHeight <= 0 {
		return 1
	}
	if srcHeight <= height && srcWidth <= width {
		return 1
	}
	num, den := srcWidth, width
	if srcWidth > srcHeight {
		num, den = srcHeight, height
	}
	switch {
	case den == 0:
		return max(srcWidth, srcHeight)
	case den < 0:
		return 1
	}
	return max(1, int(math.Round(float64(num)/float64(den))))
}

// ReadBitmap reads the dimensions of src, then decodes it subsampled so that it
// roughly fits within width x height.
// Any failure is logged, and reported as a nil image.
func ReadBitmap[T any](src T, dec BitmapDecoder[T], width, height int) (img image.Image) {
	pass := "bounds"
	defer func() {
		if r := recover(); r != nil {
			logFailure(src, pass, fmt.Errorf("panic: %v", r))
			img = nil
		}
	}()

	opts := &Options{JustDecodeBounds: true}
	if _, err := dec.Decode(src, opts); err != nil {
		logFailure(src, pass, err)
		return nil
	}
	srcWidth, srcHeight := opts.OutWidth, opts.OutHeight
	if srcWidth <= 0 || srcHeight <= 0 {
		log.WithFields(logrus.Fields{
			"source": describeSource(src),
		}).Debug(ErrNoDimensions.Error())
	}

	opts.JustDecodeBounds = false
	opts.SampleSize = CalculateSampleSize(srcWidth, srcHeight, width, height)
	pass = "decode"
	decoded, err := dec.Decode(src, opts)
	if err != nil {
		logFailure(src, pass, err)
		return nil
	}
	if decoded == nil {
		return nil
	}
	log.WithFields(logrus.Fields{
		"source":     describeSource(src),
		"format":     opts.OutFormat,
		"src_width":  srcWidth,
		"src_height": srcHeight,
		"sample":     opts.SampleSize,
		"width":      opts.OutWidth,
		"height":     opts.OutHeight,
	}).Debug("decoded bitmap")
	return decoded
}

func logFailure(src any, pass string, err error) {
	log.WithFields(logrus.Fields{
		"source": describeSource(src),
		"pass":   pass,
	}).WithError(err).Error("failed to read bitmap")
}

func describeSource(src any) string {
	switch s := src.(type) {
	case string:
		return s
	case *os.File:
		if s == nil {
			return "<nil file>"
		}
		return s.Name()
	case []byte:
		return fmt.Sprintf("bytes[%d]", len(s))
	case fmt.Stringer:
		return s.String()
	case io.Reader:
		return fmt.Sprintf("stream %T", s)
	}
	return fmt.Sprintf("%T", src)
}

// ReadBitmapFromFile decodes the image at path, subsampled to roughly fit width x height
func ReadBitmapFromFile(path string, width, height int) image.Image {
	return ReadBitmap(path, FilePathDecoder{Codec: DefaultCodec}, width, height)
}

// ReadBitmapFromFileDescriptor decodes f from its current offset, without moving that offset
func ReadBitmapFromFileDescriptor(f *os.File, width, height int) image.Image {
	return ReadBitmap(f, FileDecoder{Codec: DefaultCodec}, width, height)
}

// ReadBitmapFromStream decodes r from its current position. r is rewound to that position between passes.
func ReadBitmapFromStream(r io.ReadSeeker, width, height int) image.Image {
	return ReadBitmap(r, &StreamDecoder{Codec: DefaultCodec}, width, height)
}

// ReadBitmapFromBytes decodes an encoded image held in memory
func ReadBitmapFromBytes(data []byte, width, height int) image.Image {
	return ReadBitmap(data, BytesDecoder{Codec: DefaultCodec}, width, height)
}

// ReadBitmapFromResource decodes the named entry of a packaged file system, such as an embed.FS
func ReadBitmapFromResource(fsys fs.FS, name string, width, height int) image.Image {
	return ReadBitmap(Resource{FS: fsys, Name: name}, ResourceDecoder{Codec: DefaultCodec}, width, height)
}
