package cli

import (
	"fmt"

	"github.com/bmharper/bitmaptool"
	"github.com/spf13/cobra"
)

func NewProbeCommand(options *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe FILE...",
		Short: "Print the dimensions of images, and the subsample factor shrink would use",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, options, args)
		},
	}
	registerDecodeFlags(cmd.Flags())
	return cmd
}

func runProbe(cmd *cobra.Command, options *GlobalOptions, files []string) error {
	cfg := options.Conf
	dec := bitmaptool.FilePathDecoder{Codec: options.codec()}
	failed := 0
	for _, file := range files {
		opts := &bitmaptool.Options{JustDecodeBounds: true}
		if _, err := dec.Decode(file, opts); err != nil {
			options.Logger.WithField("source", file).WithError(err).Warn("probe failed")
			failed++
			continue
		}
		sample := bitmaptool.CalculateSampleSize(opts.OutWidth, opts.OutHeight, cfg.Decode.MaxWidth, cfg.Decode.MaxHeight)
		w, h := bitmaptool.SubsampledSize(opts.OutWidth, opts.OutHeight, sample)
		fmt.Fprintf(cmd.OutOrStdout(), "%v: %v %dx%d sample %d -> %dx%d\n", file, opts.OutFormat, opts.OutWidth, opts.OutHeight, sample, w, h)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images could not be probed", failed, len(files))
	}
	return nil
}
