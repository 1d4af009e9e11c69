// Package cli implements the provtrack command line: search and inspect the
// runs recorded by instrumented programs.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/provtrack/internal/config"
	"github.com/roach88/provtrack/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Home     string
	Database string

	// Config is loaded before any subcommand runs.
	Config *config.Config
}

// NewRootCommand creates the root command for the provtrack CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "provtrack",
		Short: "provtrack - provenance tracking for data analysis programs",
		Long: `Frictionless provenance tracking.

Programs using the track package record which files each run read and
wrote. provtrack answers "which run produced this file" and "which run
last read it".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Home, "home", "", "provtrack home directory (default $PROVTRACK_HOME or ~/.provtrack)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the run database (overrides database.path)")

	// Add subcommands
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewLatestCommand(opts))
	cmd.AddCommand(NewDebugCommand(opts))
	cmd.AddCommand(NewHooksCommand(opts))

	return cmd
}

// load reads the configuration, applies flag overrides and installs the
// default logger.
func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.Home)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if o.Database != "" {
		cfg.Database.Path = o.Database
	}
	o.Config = cfg

	level, _ := logging.LevelFromString(cfg.Log.Level)
	slog.SetDefault(logging.NewLogger(cmd.ErrOrStderr(), logging.LevelFromVerbosity(o.Verbose, level)))
	return nil
}
