// Command atlas enumerates the tic-tac-toe state space and serves the
// claimable gallery of canonical positions.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaminalder/tictactoe-atlas/internal/config"
)

// cli carries settings resolved by the root command to its subcommands.
type cli struct {
	configPath string
	logLevel   string
	cfg        config.Config
	log        *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:               "atlas",
		Short:             "Explore and claim the tic-tac-toe state space",
		SilenceUsage:      true,
		PersistentPreRunE: c.load,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override log_level (debug, info, warn, error)")

	root.AddCommand(
		c.serveCmd(),
		c.seedCmd(),
		c.statsCmd(),
		c.showCmd(),
		c.pathCmd(),
		c.initConfigCmd(),
	)
	return root
}

func (c *cli) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	c.cfg = cfg
	c.log = cfg.NewLogger(cmd.ErrOrStderr())
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
