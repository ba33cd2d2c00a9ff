package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/happyhackingspace/rproj/internal/config"
	"github.com/spf13/cobra"
)

func (c *CLI) newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage experiment configuration files",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	var flags experimentFlags
	var out string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the resolved configuration to a YAML file",
		Example: `  # Defaults
  rproj config init

  # Start from a variant and run it later with --config
  rproj config init --out bigrams.yaml --ngram-max 2 --stop-words
  rproj run --config bigrams.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(out); err == nil {
					return fmt.Errorf("config: %s exists, use --force to overwrite", out)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}
			cfg, err := c.loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			if err := config.Write(cfg, out); err != nil {
				return err
			}
			slog.Info("Configuration written", "path", out)
			fmt.Fprintf(c.out, "Wrote %s\n", out)
			return nil
		},
	}
	flags.register(initCmd, true)
	initCmd.Flags().StringVar(&out, "out", "rproj.yaml", "Destination file")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(initCmd)
	return configCmd
}
