package cli

import (
	"fmt"
	"os"

	"github.com/bmharper/bitmaptool/internal/config"
	"github.com/spf13/cobra"
)

func NewConfigCommand(options *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(options))
	return cmd
}

func newConfigInitCommand(options *GlobalOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write the effective configuration to PATH, or to the --config path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := options.CfgFilePath
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%v already exists, use --force to overwrite it", path)
			}
			if err := config.Save(path, options.Conf); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %v\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
