// Package cmd implements the linetail command line.
package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/butter-bot-machines/linetail/pkg/config"
	"github.com/butter-bot-machines/linetail/pkg/config/env"
	"github.com/butter-bot-machines/linetail/pkg/logging"
	"github.com/butter-bot-machines/linetail/pkg/metrics"
)

const Version = "0.1.0"

// CLI represents the command-line interface
type CLI struct {
	root    *cobra.Command
	env     config.Environment
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewCLI creates a new CLI instance reading the process environment
func NewCLI() *CLI {
	return NewCLIWithEnv(env.New())
}

// NewCLIWithEnv creates a CLI reading overrides from environment
func NewCLIWithEnv(environment config.Environment) *CLI {
	c := &CLI{
		env:     environment,
		config:  config.DefaultConfig(),
		logger:  slog.Default(),
		metrics: metrics.NewCollector(),
	}

	root := &cobra.Command{
		Use:               "linetail",
		Short:             "Follow appended lines across files, delivered in debounced batches",
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           Version,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().String("config", "", "Path to a YAML config file")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	root.PersistentFlags().String("backend", "", "Watcher backend (fsnotify, tail)")

	root.AddCommand(c.newWatchCmd())
	root.AddCommand(c.newFollowCmd())
	root.AddCommand(c.newConfigCmd())
	root.AddCommand(c.newVersionCmd())

	c.root = root
	return c
}

// Run executes the command line in args
func (c *CLI) Run(ctx context.Context, args []string) error {
	c.root.SetArgs(args)
	return c.root.ExecuteContext(ctx)
}

// SetOutput redirects command output and errors
func (c *CLI) SetOutput(out, errOut io.Writer) {
	c.root.SetOut(out)
	c.root.SetErr(errOut)
}

// setup loads configuration, applies root flags and builds the logger
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	manager := config.NewManager(path, c.env)
	if err := manager.Load(); err != nil {
		return err
	}
	cfg := manager.Get()

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("backend") {
		cfg.Backend, _ = flags.GetString("backend")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	c.logger = logging.NewLogger(&logging.Options{
		Level:  level,
		JSON:   cfg.Log.JSON,
		Output: cmd.ErrOrStderr(),
	})
	c.config = cfg
	return nil
}
