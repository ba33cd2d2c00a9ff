package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/happyhackingspace/rproj"
	"github.com/happyhackingspace/rproj/internal/banner"
	"github.com/happyhackingspace/rproj/internal/config"
	"github.com/spf13/cobra"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	configPath  string
	envFile     string
	runID       string
	initialized bool
	rootCmd     *cobra.Command
	out         io.Writer
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version, out: os.Stdout}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:     "rproj",
		Short:   "Sparse random projections of Twenty Newsgroups",
		Version: c.version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	c.rootCmd.PersistentFlags().BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging and banner")
	c.rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to a YAML config file")
	c.rootCmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Path to a .env file with RPROJ_* variables")

	defaultHelp := c.rootCmd.HelpFunc()
	c.rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		c.initApp()
		defaultHelp(cmd, args)
	})

	c.rootCmd.AddCommand(c.newRunCommand())
	c.rootCmd.AddCommand(c.newEvaluateCommand())
	c.rootCmd.AddCommand(c.newMinDimCommand())
	c.rootCmd.AddCommand(c.newNeighborsCommand())
	c.rootCmd.AddCommand(c.newDataCommand())
	c.rootCmd.AddCommand(c.newConfigCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	return c.rootCmd.Execute()
}

// initApp initializes logging and prints the banner.
func (c *CLI) initApp() {
	if c.initialized {
		return
	}
	c.initialized = true
	c.runID = uuid.NewString()

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger.With("run", c.runID))
	if !c.silent {
		fmt.Fprint(os.Stderr, banner.Banner(c.version))
	}
}

// loadConfig resolves the experiment configuration and applies the flags
// the user set on cmd.
func (c *CLI) loadConfig(cmd *cobra.Command, flags *experimentFlags) (*rproj.ExperimentConfig, error) {
	cfg, err := config.Load(c.configPath, c.envFile)
	if err != nil {
		return nil, err
	}
	if flags != nil {
		flags.apply(cmd, cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.DataFolder); err != nil && !filepath.IsAbs(cfg.DataFolder) {
		// running from a subdirectory of the checkout
		if dir, err := rproj.FindDataFolder(cfg.DataFolder); err == nil {
			cfg.DataFolder = dir
		}
	}
	slog.Debug("Configuration resolved", "data-folder", cfg.DataFolder, "format", cfg.Format,
		"epsilon", cfg.Epsilon, "bound", cfg.Bound, "arms", cfg.Arms, "seed", cfg.Seed)
	return cfg, nil
}
