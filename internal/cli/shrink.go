package cli

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/bmharper/bitmaptool"
	"github.com/bmharper/bitmaptool/internal/config"
	"github.com/bmharper/cimg/v2"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errNoImage = errors.New("no image decoded")

func NewShrinkCommand(options *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shrink FILE...",
		Short: "Decode images downsampled to fit the configured bounds, and write them to the output directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShrink(options, args)
		},
	}
	def := config.Default()
	registerDecodeFlags(cmd.Flags())
	cmd.Flags().String("out-dir", def.Output.Dir, "Directory for the shrunk images. (Env: BITMAPTOOL_OUTPUT_DIR)")
	cmd.Flags().String("format", def.Output.Format, "Output format: jpeg or png. (Env: BITMAPTOOL_OUTPUT_FORMAT)")
	cmd.Flags().Int("quality", def.Output.Quality, "JPEG quality, 1 to 100. (Env: BITMAPTOOL_OUTPUT_QUALITY)")
	cmd.Flags().Int("jobs", def.Jobs, "Number of images decoded at once. (Env: BITMAPTOOL_JOBS)")
	return cmd
}

func runShrink(options *GlobalOptions, files []string) error {
	cfg := options.Conf
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	var failed atomic.Int32
	fail := func(file string, err error) {
		options.Logger.WithField("source", file).WithError(err).Warn("image not shrunk")
		failed.Add(1)
	}

	// Claim every output path up front, so that two inputs never write the same file
	claimed := map[string]string{}
	outPaths := make([]string, len(files))
	for i, file := range files {
		outPath, err := outputPath(file, cfg.Output.Dir, cfg.Output.Format)
		if err != nil {
			fail(file, err)
			continue
		}
		key, err := filepath.Abs(outPath)
		if err != nil {
			fail(file, err)
			continue
		}
		if first, ok := claimed[key]; ok {
			fail(file, fmt.Errorf("output %v is already written by %v", outPath, first))
			continue
		}
		claimed[key] = file
		outPaths[i] = outPath
	}

	codec := options.codec()
	g := new(errgroup.Group)
	g.SetLimit(cfg.Jobs)
	for i, file := range files {
		if outPaths[i] == "" {
			continue
		}
		g.Go(func() error {
			if err := shrinkFile(options, codec, file, outPaths[i]); err != nil {
				fail(file, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d images could not be shrunk", n, len(files))
	}
	return nil
}

func shrinkFile(options *GlobalOptions, codec bitmaptool.Codec, file, outPath string) error {
	cfg := options.Conf
	in, err := os.Stat(file)
	if err != nil {
		return err
	}

	img := bitmaptool.ReadBitmap(file, bitmaptool.FilePathDecoder{Codec: codec}, cfg.Decode.MaxWidth, cfg.Decode.MaxHeight)
	if img == nil {
		return errNoImage
	}

	encoded, err := encode(img, cfg.Output.Format, cfg.Output.Quality)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, encoded, 0644); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("could not write output file: %w", err)
	}
	options.Logger.WithFields(logrus.Fields{
		"source": file,
		"output": outPath,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	}).Infof("shrunk %v to %v", humanize.Bytes(uint64(in.Size())), humanize.Bytes(uint64(len(encoded))))
	return nil
}

// outputPath places file in dir with the extension of format, refusing to overwrite the input
func outputPath(file, dir, format string) (string, error) {
	ext := ".jpg"
	if format == "png" {
		ext = ".png"
	}
	base := filepath.Base(file)
	outPath := filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+ext)

	absIn, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	absOut, err := filepath.Abs(outPath)
	if err != nil {
		return "", err
	}
	if absIn == absOut {
		return "", fmt.Errorf("output %v would overwrite the input", outPath)
	}
	return outPath, nil
}

func encode(img image.Image, format string, quality int) ([]byte, error) {
	if format == "png" {
		buf := &bytes.Buffer{}
		if err := png.Encode(buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
		return buf.Bytes(), nil
	}
	ci, err := cimg.FromImage(img, true)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap image for jpeg: %w", err)
	}
	encoded, err := cimg.Compress(ci, cimg.MakeCompressParams(cimg.Sampling444, quality, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return encoded, nil
}
