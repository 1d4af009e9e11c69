package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/provtrack/internal/config"
	"github.com/roach88/provtrack/internal/ir"
	"github.com/roach88/provtrack/internal/query"
	"github.com/roach88/provtrack/internal/store"
	"github.com/roach88/provtrack/internal/testutil"
	"github.com/roach88/provtrack/lib/fileio"
	"github.com/roach88/provtrack/lib/tabular"
	"github.com/roach88/provtrack/track"
)

// WorkPlaceholder replaces the working directory in reported paths.
const WorkPlaceholder = "$WORK"

// Harness is the scenario execution engine.
// It runs every session with a stepping clock and sequential ids.
type Harness struct {
	work   string
	cfg    *config.Config
	clock  *testutil.StepClock
	ids    *testutil.SequenceGenerator
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario gets a fresh working directory and provtrack home, both
// removed afterwards.
//
// Execution flow:
//  1. Write the scenario files into the working directory
//  2. Execute each run as a tracking session
//  3. Reopen the store and summarize the persisted runs
//  4. Evaluate queries and assertions
//
// Step, query and assertion failures are collected in Result.Errors. The
// returned error is reserved for infrastructure failures.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	work, err := os.MkdirTemp("", "harness-work-")
	if err != nil {
		return nil, fmt.Errorf("create working directory: %w", err)
	}
	defer os.RemoveAll(work)

	// Resolve symlinked temp roots so recorded absolute paths share the prefix.
	if resolved, err := filepath.EvalSymlinks(work); err == nil {
		work = resolved
	}

	home, err := os.MkdirTemp("", "harness-home-")
	if err != nil {
		return nil, fmt.Errorf("create home directory: %w", err)
	}
	defer os.RemoveAll(home)

	cfg := config.Default(home)
	cfg.General.Quiet = true
	cfg.Ignored.Environment = true

	h := &Harness{
		work:   work,
		cfg:    cfg,
		clock:  testutil.NewStepClock(testutil.Epoch, time.Minute),
		ids:    testutil.NewSequenceGenerator("run"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := &Result{Pass: true}

	if err := h.writeFiles(scenario.Files); err != nil {
		return nil, err
	}

	for i, rs := range scenario.Runs {
		if err := h.executeRun(ctx, i, rs, result); err != nil {
			return nil, fmt.Errorf("runs[%d]: %w", i, err)
		}
	}

	st, err := store.Open(h.cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	runs, err := st.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	for _, rec := range runs {
		result.Runs = append(result.Runs, h.summarize(rec))
	}

	engine := query.New(st)
	for _, q := range scenario.Queries {
		outcome, err := h.executeQuery(ctx, engine, q)
		if err != nil {
			result.fail(fmt.Errorf("query %s: %w", q.Name, err))
			continue
		}
		result.Queries = append(result.Queries, outcome)
		if q.Expect != nil {
			if err := checkQuery(q, outcome); err != nil {
				result.fail(err)
			}
		}
	}

	for _, a := range scenario.Assertions {
		if err := evaluateAssertion(result, a); err != nil {
			result.fail(err)
		}
	}

	h.logger.Info("scenario complete",
		"scenario", scenario.Name,
		"runs", len(result.Runs),
		"queries", len(result.Queries),
		"pass", result.Pass,
	)
	return result, nil
}

func (h *Harness) writeFiles(files map[string]string) error {
	for rel, content := range files {
		if err := writeUntracked(h.path(rel), content); err != nil {
			return err
		}
	}
	return nil
}

// executeRun performs one run as a tracking session. Step failures are
// reported on result; session failures are returned.
func (h *Harness) executeRun(ctx context.Context, index int, rs RunSpec, result *Result) error {
	var script string
	if rs.Script != "" {
		script = h.path(rs.Script)
		if rs.ScriptSource != "" {
			if err := writeUntracked(script, rs.ScriptSource); err != nil {
				return err
			}
		}
	}

	sess, err := track.Start(ctx, track.Options{
		Config:       h.cfg,
		Script:       script,
		Command:      "harness",
		Args:         []string{fmt.Sprintf("run-%d", index+1)},
		Description:  rs.Description,
		CustomValues: rs.CustomValues,
		Clock:        h.clock,
		IDs:          h.ids,
	})
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	for j, step := range rs.Steps {
		op, rel, err := step.Op()
		if err != nil {
			result.fail(fmt.Errorf("runs[%d].steps[%d]: %w", index, j, err))
			continue
		}
		err = h.executeStep(sess, op, h.path(rel), step.Content)
		switch {
		case err != nil && !step.ExpectError:
			result.fail(fmt.Errorf("runs[%d].steps[%d]: %s %s: %w", index, j, op, rel, err))
		case err == nil && step.ExpectError:
			result.fail(fmt.Errorf("runs[%d].steps[%d]: %s %s: expected an error", index, j, op, rel))
		}
	}

	h.logger.Debug("run executed", "unique_id", sess.ID(), "steps", len(rs.Steps))
	return sess.Finish(ctx)
}

func (h *Harness) executeStep(sess *track.Session, op, path, content string) error {
	switch op {
	case OpRead:
		_, err := fileio.ReadFile(path)
		return err
	case OpOpen:
		f, err := fileio.Open(path)
		if err != nil {
			return err
		}
		return f.Close()
	case OpWrite:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return fileio.WriteFile(path, []byte(content), 0o644)
	case OpCreate:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		f, err := fileio.Create(path)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(f, content); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case OpLoadTable:
		_, err := tabular.LoadTable(path)
		return err
	case OpSaveTable:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		t := &tabular.Table{Header: []string{"value"}, Rows: [][]string{{content}}}
		return t.Save(path)
	case OpLoadYAML:
		_, err := tabular.LoadFile(path)
		return err
	case OpDumpYAML:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return tabular.DumpFile(map[string]any{"content": content}, path)
	case OpLogInput:
		return sess.LogInput(path)
	case OpLogOutput:
		return sess.LogOutput(path)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

func (h *Harness) executeQuery(ctx context.Context, engine *query.Engine, q QuerySpec) (QueryOutcome, error) {
	subject := strings.ReplaceAll(q.Subject, WorkPlaceholder, h.work)
	if q.File != "" {
		subject = h.path(q.File)
	}

	res, err := engine.Search(ctx, query.Request{
		Subject: subject,
		Mode:    query.Mode(q.Mode),
		All:     q.All,
	})
	if err != nil {
		return QueryOutcome{}, err
	}

	ids := make([]string, 0, len(res.Runs))
	for _, rec := range res.Runs {
		ids = append(ids, rec.UniqueID)
	}
	return QueryOutcome{
		Name:          q.Name,
		Mode:          q.Mode,
		Outcome:       string(res.Outcome),
		IDs:           ids,
		Total:         res.Total,
		MoreAvailable: res.MoreAvailable,
	}, nil
}

func (h *Harness) summarize(rec ir.RunRecord) RunSummary {
	s := RunSummary{
		UniqueID:     rec.UniqueID,
		Inputs:       h.relEntries(rec.Inputs),
		Outputs:      h.relEntries(rec.Outputs),
		Libraries:    rec.Libraries,
		CustomValues: rec.CustomValues,
		HasDiff:      rec.HasDiff(),
	}
	for _, w := range rec.Warnings {
		s.Warnings = append(s.Warnings, strings.ReplaceAll(w, h.work, WorkPlaceholder))
	}
	return s
}

func (h *Harness) relEntries(entries []ir.Entry) []ir.Entry {
	out := make([]ir.Entry, len(entries))
	for i, e := range entries {
		out[i] = ir.Entry{Path: h.rel(e.Path), Hash: e.Hash}
	}
	return out
}

// path resolves a scenario path against the working directory.
func (h *Harness) path(rel string) string {
	return filepath.Join(h.work, filepath.FromSlash(rel))
}

// rel rewrites an absolute path under the working directory as "$WORK/...".
func (h *Harness) rel(path string) string {
	r, err := filepath.Rel(h.work, path)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return path
	}
	return WorkPlaceholder + "/" + filepath.ToSlash(r)
}

// workPath is the reported form of a scenario path.
func workPath(rel string) string {
	return WorkPlaceholder + "/" + filepath.ToSlash(filepath.Clean(rel))
}

func writeUntracked(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
