package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/provtrack/internal/query"
	"github.com/roach88/provtrack/internal/store"
)

// LatestOptions holds flags for the latest command.
type LatestOptions struct {
	*RootOptions
	JSON bool
	Diff bool
}

// NewLatestCommand creates the latest command.
func NewLatestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LatestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent run",
		Long: `Show the most recent run in the database.

Examples:
  provtrack latest
  provtrack latest --diff
  provtrack latest --json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLatest(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.JSON, "json", "j", false, "print the run as JSON")
	cmd.Flags().BoolVarP(&opts.Diff, "diff", "d", false, "print the script diff of the run")

	return cmd
}

func runLatest(ctx context.Context, opts *LatestOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := &OutputFormatter{
		JSON:      opts.JSON,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Config.Database.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	res, err := query.New(st).Latest(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}
	return writeResult(out, res, opts.Diff)
}
