// Package track records the provenance of the current program.
//
// Call Start before the program touches any data and Close when it is done:
//
//	sess, err := track.Start(ctx, track.Options{Script: "analysis.go"})
//	if err != nil {
//		return err
//	}
//	defer sess.Close()
//
//	t, err := tabular.LoadTable("in.csv") // recorded as an input
//
// Every file read or written through the instrumented adapters (lib/fileio,
// lib/tabular) between Start and Close becomes an input or output of the
// run. Close persists the run exactly once and releases the store.
package track

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/roach88/provtrack/internal/config"
	"github.com/roach88/provtrack/internal/hooks"
	"github.com/roach88/provtrack/internal/intercept"
	"github.com/roach88/provtrack/internal/ir"
	"github.com/roach88/provtrack/internal/recorder"
	"github.com/roach88/provtrack/internal/store"
	"github.com/roach88/provtrack/lib/fileio"
	"github.com/roach88/provtrack/lib/tabular"
)

// ErrSessionActive is returned by Start while another session is open.
// Interceptors are process-wide, so only one run is recorded at a time.
var ErrSessionActive = errors.New("a tracking session is already active")

var (
	activeMu sync.Mutex
	active   *Session
)

// Options configure a session. Zero values fall back to the loaded config
// and the process command line.
type Options struct {
	// Config overrides the configuration. Nil loads it from the provtrack
	// home directory.
	Config *config.Config

	// Script is the source file of the program, used for the script hash
	// and the diff against the previous run.
	Script string

	// Command and Args default to os.Args.
	Command string
	Args    []string

	Author       string
	Description  string
	CustomValues map[string]string

	// Clock and IDs are for deterministic tests.
	Clock recorder.Clock
	IDs   recorder.IDGenerator
}

// Session is one recorded run.
type Session struct {
	store    *store.Store
	rec      *recorder.Recorder
	resolver *intercept.Resolver
	report   intercept.InstallReport
	quiet    bool

	closeOnce sync.Once
	closeErr  error
}

// Start opens the store, starts a run record and instruments every hook
// target that resolves. Targets that do not resolve are skipped.
func Start(ctx context.Context, opts Options) (*Session, error) {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active != nil {
		return nil, ErrSessionActive
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load("")
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	targets, err := hooks.Load(cfg.Hooks.File)
	if err != nil {
		return nil, err
	}

	resolver, err := NewResolver()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if opts.Command == "" && len(os.Args) > 0 {
		opts.Command = os.Args[0]
		if opts.Args == nil {
			opts.Args = os.Args[1:]
		}
	}

	rec, err := recorder.New(st, recorder.Options{
		Script:            opts.Script,
		Command:           opts.Command,
		Args:              opts.Args,
		Author:            opts.Author,
		Description:       opts.Description,
		HashInputs:        cfg.Data.HashInputs,
		HashOutputs:       cfg.Data.HashOutputs,
		IgnoreDiff:        cfg.Ignored.Diff,
		IgnoreEnvironment: cfg.Ignored.Environment,
		IgnoreLibraries:   cfg.Ignored.Libraries,
		CustomValues:      opts.CustomValues,
		Clock:             opts.Clock,
		IDs:               opts.IDs,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	report := intercept.Install(resolver, targets, rec.Log)
	rec.SetLibraries(report.Modules())

	sess := &Session{
		store:    st,
		rec:      rec,
		resolver: resolver,
		report:   report,
		quiet:    cfg.General.Quiet,
	}
	active = sess

	if !sess.quiet {
		slog.Info("recording run", "unique_id", rec.ID(), "store", st.Path())
	}
	return sess, nil
}

// NewResolver returns a resolver with the bundled instrumentable adapters
// registered and validated.
func NewResolver() (*intercept.Resolver, error) {
	r := intercept.NewResolver()
	if err := fileio.Register(r); err != nil {
		return nil, err
	}
	if err := tabular.Register(r); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("module registry: %w", err)
	}
	return r, nil
}

// ID returns the unique_id of the run.
func (s *Session) ID() string {
	return s.rec.ID()
}

// Record returns a snapshot of the run record.
func (s *Session) Record() ir.RunRecord {
	return s.rec.Record()
}

// Report describes which targets were instrumented.
func (s *Session) Report() intercept.InstallReport {
	return s.report
}

// LogInput records path as read by the run, for files read without an
// instrumented adapter.
func (s *Session) LogInput(path string) error {
	return s.rec.Log(path, intercept.SourceInput)
}

// LogOutput records path as written by the run.
func (s *Session) LogOutput(path string) error {
	return s.rec.Log(path, intercept.SourceOutput)
}

// SetCustomValue attaches a key/value pair to the run.
func (s *Session) SetCustomValue(key, value string) {
	s.rec.SetCustomValue(key, value)
}

// Finish removes the interceptors, persists the run and closes the store.
// Only the first call does any work; later calls return its result.
func (s *Session) Finish(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.finish(ctx)
	})
	return s.closeErr
}

// Close is Finish with a background context.
func (s *Session) Close() error {
	return s.Finish(context.Background())
}

func (s *Session) finish(ctx context.Context) error {
	defer func() {
		activeMu.Lock()
		if active == s {
			active = nil
		}
		activeMu.Unlock()
	}()

	var errs []error
	if err := intercept.Uninstall(s.resolver, s.report.Installed); err != nil {
		errs = append(errs, err)
	}
	if err := s.rec.Finish(ctx); err != nil {
		errs = append(errs, err)
	} else if !s.quiet {
		slog.Info("run saved", "unique_id", s.rec.ID())
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
