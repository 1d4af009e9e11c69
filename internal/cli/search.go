package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/provtrack/internal/ir"
	"github.com/roach88/provtrack/internal/query"
	"github.com/roach88/provtrack/internal/store"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Filepath bool
	Fuzzy    bool
	Regex    bool
	ID       bool
	Mode     string
	All      bool
	JSON     bool
	Diff     bool
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <file|hash|pattern|id>",
		Short: "Find the runs that read or wrote a file",
		Long: `Find the runs whose inputs or outputs match the argument.

By default the argument is hashed if it names a file, and runs are matched
on content. Otherwise it is taken as a literal hash. Only the most recent
match is shown unless --all is given.

Examples:
  provtrack search results/summary.csv
  provtrack search -p results/summary.csv
  provtrack search -f summary --all
  provtrack search -r '/data/2024/.*\.csv'
  provtrack search -i 0190b7 --json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVarP(&opts.Filepath, "filepath", "p", false, "match the exact absolute path")
	cmd.Flags().BoolVarP(&opts.Fuzzy, "fuzzy", "f", false, "match paths containing the argument")
	cmd.Flags().BoolVarP(&opts.Regex, "regex", "r", false, "match paths against a regular expression")
	cmd.Flags().BoolVarP(&opts.ID, "id", "i", false, "match run ids starting with the argument")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "query mode (hash|filepath|fuzzy|regex|id)")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "show every matching run, oldest first")
	cmd.Flags().BoolVarP(&opts.JSON, "json", "j", false, "print runs as JSON")
	cmd.Flags().BoolVarP(&opts.Diff, "diff", "d", false, "print the script diff of the run shown")
	cmd.MarkFlagsMutuallyExclusive("filepath", "fuzzy", "regex", "id", "mode")

	return cmd
}

// mode maps the shortcut flags to a query mode.
func (o *SearchOptions) mode() query.Mode {
	switch {
	case o.Filepath:
		return query.ModeFilepath
	case o.Fuzzy:
		return query.ModeFuzzy
	case o.Regex:
		return query.ModeRegex
	case o.ID:
		return query.ModeID
	case o.Mode != "":
		if m, ok := query.ParseMode(o.Mode); ok {
			return m
		}
		return query.Mode(o.Mode)
	default:
		return query.ModeHash
	}
}

func runSearch(ctx context.Context, opts *SearchOptions, cmd *cobra.Command, subject string) error {
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

	res, err := query.New(st).Search(ctx, query.Request{
		Subject: subject,
		Mode:    opts.mode(),
		All:     opts.All,
	})
	if err != nil {
		exitErr := WrapExitError(ExitCommandError, "search failed", err)
		var qe *query.QueryError
		if errors.As(err, &qe) {
			out.Error(string(qe.Code), qe.Message, qe.Err)
			exitErr.MarkReported()
		}
		return exitErr
	}

	out.VerboseLog("mode=%s matches=%d", res.Mode, res.Total)
	return writeResult(out, res, opts.Diff)
}

// writeResult prints a query result in the requested format.
func writeResult(out *OutputFormatter, res query.Result, showDiff bool) error {
	switch res.Outcome {
	case query.OutcomeUnknownQuery:
		out.Error("UNKNOWN_QUERY", fmt.Sprintf("unknown query mode %q", res.Mode), nil)
		return NewExitError(ExitCommandError, "unknown query").MarkReported()

	case query.OutcomeEmpty:
		if out.JSON {
			return out.WriteJSON([]ir.RunRecord{})
		}
		out.Println("Database is empty")
		return nil

	case query.OutcomeNoResults:
		if out.JSON {
			return out.WriteJSON([]ir.RunRecord{})
		}
		out.Println("No results found")
		return nil
	}

	if out.JSON {
		if res.ShowAll {
			return out.WriteJSON(res.Runs)
		}
		return out.WriteJSON(res.Runs[len(res.Runs)-1])
	}
	return writeRuns(out.Writer, res.Runs, res.MoreAvailable, showDiff && !res.ShowAll)
}
