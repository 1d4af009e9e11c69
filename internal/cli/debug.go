package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/provtrack/internal/store"
)

// NewDebugCommand creates the debug command.
func NewDebugCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Show the database location and effective configuration",
		Long: `Show where runs are stored, which config file was read and the
effective value of every setting.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDebug(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runDebug(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	n, err := st.Count(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count runs", err)
	}

	return render(cmd.OutOrStdout(), "debug.tmpl", debugView{
		Database: cfg.Database.Path,
		Home:     cfg.Home,
		File:     cfg.File,
		Runs:     n,
		Settings: cfg.Settings(),
	})
}
