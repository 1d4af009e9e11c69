package cli

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/roach88/provtrack/internal/ir"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DateFormat is how dates are shown in rendered runs.
const DateFormat = "2006-01-02 15:04:05 UTC"

// Separator is printed between runs when several are shown.
var Separator = strings.Repeat("-", 40)

// MoreRunsHint is printed when only the latest of several matches is shown.
const MoreRunsHint = "** Previous runs have been found. Run with --all to show. **"

var templates = template.Must(
	template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
		"date": func(t time.Time) string { return t.UTC().Format(DateFormat) },
	}).ParseFS(templateFS, "templates/*.tmpl"),
)

// renderRun writes the human-readable form of a run.
func renderRun(w io.Writer, rec ir.RunRecord) error {
	return render(w, "run.tmpl", rec)
}

type debugView struct {
	Database string
	Home     string
	File     string
	Runs     int
	Settings [][2]string
}

func render(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	out := strings.TrimRight(buf.String(), "\n") + "\n"
	_, err := io.WriteString(w, out)
	return err
}

// writeRuns prints runs the way search and latest show them: every run
// separated by a rule when all is set, otherwise only the last one.
func writeRuns(w io.Writer, runs []ir.RunRecord, more, showDiff bool) error {
	for i, rec := range runs {
		if err := renderRun(w, rec); err != nil {
			return err
		}
		if i < len(runs)-1 {
			fmt.Fprintln(w, Separator)
		}
	}
	if more {
		fmt.Fprintln(w, MoreRunsHint)
	}
	if showDiff && len(runs) > 0 {
		last := runs[len(runs)-1]
		if last.HasDiff() {
			fmt.Fprintf(w, "\n\n\n%s\n", strings.TrimRight(last.Diff, "\n"))
		}
	}
	return nil
}
