package cli

import (
	"fmt"
	"os"

	"github.com/bmharper/bitmaptool"
	"github.com/bmharper/bitmaptool/internal/config"
	"github.com/bmharper/bitmaptool/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const defaultConfigPath = "bitmaptool.toml"

type GlobalOptions struct {
	CfgFilePath string

	Logger *logrus.Logger
	Conf   *config.Config
}

func NewRootCMD() *cobra.Command {
	globalOptions := &GlobalOptions{}

	rootCMD := &cobra.Command{
		Use:   "bitmaptool",
		Short: "Decode images downsampled to fit within a bounding box",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return globalOptions.initialize(cmd)
		},
		SilenceUsage: true,
	}

	globalOptions.registerFlags(rootCMD.PersistentFlags())

	rootCMD.AddCommand(NewShrinkCommand(globalOptions))
	rootCMD.AddCommand(NewProbeCommand(globalOptions))
	rootCMD.AddCommand(NewConfigCommand(globalOptions))

	return rootCMD
}

func (options *GlobalOptions) registerFlags(flags *pflag.FlagSet) {
	def := config.Default()
	flags.StringVar(&options.CfgFilePath, "config", defaultConfigPath, "Path to the TOML configuration file. (Env: BITMAPTOOL_CONFIG)")
	flags.String("log-level", def.Logging.Level, "Logging level (trace, debug, info, warn, error). (Env: BITMAPTOOL_LOGGING_LEVEL)")
	flags.String("log-format", def.Logging.Format, "Log format (text, json). (Env: BITMAPTOOL_LOGGING_FORMAT)")
}

// registerDecodeFlags adds the flags shared by the commands that decode images
func registerDecodeFlags(flags *pflag.FlagSet) {
	def := config.Default()
	flags.Int("max-width", def.Decode.MaxWidth, "Maximum width of the decoded image. (Env: BITMAPTOOL_DECODE_MAX_WIDTH)")
	flags.Int("max-height", def.Decode.MaxHeight, "Maximum height of the decoded image. (Env: BITMAPTOOL_DECODE_MAX_HEIGHT)")
	flags.String("codec", def.Decode.Codec, "Host decoder: std or cimg. (Env: BITMAPTOOL_DECODE_CODEC)")
}

// initialize loads the configuration and sets up logging, before any command runs
func (options *GlobalOptions) initialize(cmd *cobra.Command) error {
	if envPath := os.Getenv("BITMAPTOOL_CONFIG"); envPath != "" && !cmd.Flags().Changed("config") {
		options.CfgFilePath = envPath
	}

	cfg, err := config.Load(options.CfgFilePath, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	options.Conf = cfg

	options.Logger = logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	bitmaptool.SetLogger(options.Logger)
	return nil
}

func (options *GlobalOptions) codec() bitmaptool.Codec {
	if options.Conf.Decode.Codec == "cimg" {
		return bitmaptool.CimgCodec{}
	}
	return bitmaptool.StdCodec{}
}

func Execute() {
	rootCmd := NewRootCMD()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
