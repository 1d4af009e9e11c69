package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/provtrack/internal/hooks"
	"github.com/roach88/provtrack/internal/intercept"
	"github.com/roach88/provtrack/internal/ir"
	"github.com/roach88/provtrack/track"
)

// HooksOptions holds flags for the hooks command.
type HooksOptions struct {
	*RootOptions
	File   string
	JSON   bool
	Source bool
	Strict bool
}

// NewHooksCommand creates the hooks command.
func NewHooksCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HooksOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "List instrumentation targets and whether they resolve",
		Long: `List the functions a tracked program instruments and check, without
patching anything, that each one resolves.

Targets come from --file, then hooks.file in the configuration, then the
built-in set. Unresolvable targets are skipped at run time; --strict turns
them into a failure here.

Examples:
  provtrack hooks
  provtrack hooks --file ./hooks.cue --strict
  provtrack hooks --source`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHooks(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "hooks file to check (default hooks.file or built-in)")
	cmd.Flags().BoolVarP(&opts.JSON, "json", "j", false, "print targets as JSON")
	cmd.Flags().BoolVar(&opts.Source, "source", false, "print the built-in hooks file and exit")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail if any target does not resolve")

	return cmd
}

func runHooks(opts *HooksOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{
		JSON:      opts.JSON,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Source {
		fmt.Fprint(out.Writer, hooks.DefaultSource())
		return nil
	}

	file := opts.File
	if file == "" {
		file = opts.Config.Hooks.File
	}
	targets, err := hooks.Load(file)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load hooks", err)
	}

	resolver, err := track.NewResolver()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build module registry", err)
	}
	checks := intercept.Check(resolver, targets)

	failed := 0
	for _, err := range checks {
		if err != nil {
			failed++
		}
	}

	if out.JSON {
		if err := out.WriteJSON(hooksJSON(targets, checks)); err != nil {
			return err
		}
	} else {
		writeHooksTable(out, targets, checks)
	}

	if opts.Strict && failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d hook targets do not resolve", failed, len(targets)))
	}
	return nil
}

func writeHooksTable(out *OutputFormatter, targets []intercept.Target, checks []error) {
	tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tARG\tSOURCE\tSTATUS")
	for i, t := range targets {
		status := "ok"
		if checks[i] != nil {
			status = "skip: " + firstLine(checks[i].Error())
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", t, t.Arg, t.Source, status)
	}
	tw.Flush()
}

func hooksJSON(targets []intercept.Target, checks []error) ir.IRArray {
	arr := make(ir.IRArray, len(targets))
	for i, t := range targets {
		obj := ir.IRObject{
			"module":   ir.IRString(t.Module),
			"function": ir.IRString(t.Function),
			"arg":      ir.IRInt(t.Arg),
			"source":   ir.IRString(t.Source),
			"ok":       ir.IRBool(checks[i] == nil),
		}
		if checks[i] != nil {
			obj["error"] = ir.IRString(checks[i].Error())
		}
		arr[i] = obj
	}
	return arr
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
