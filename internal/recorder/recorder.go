// Package recorder accumulates the provenance events of one script run and
// persists them as a single run record.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/roach88/provtrack/internal/intercept"
	"github.com/roach88/provtrack/internal/ir"
	"github.com/roach88/provtrack/internal/store"
)

// ErrFinished is returned by Log after the record has been persisted.
var ErrFinished = errors.New("run already finished")

// Store is the part of the record store the recorder needs.
type Store interface {
	Insert(ctx context.Context, rec ir.RunRecord) error
	LatestForScript(ctx context.Context, script string) (ir.RunRecord, error)
}

// Options describe the run being recorded.
type Options struct {
	// Script is the path of the program being run. Relative paths are made absolute.
	Script string

	// Command and Args are the command line of the run.
	Command string
	Args    []string

	Author      string
	Description string

	// Environment overrides the detected environment description.
	Environment []string

	HashInputs  bool
	HashOutputs bool

	IgnoreDiff        bool
	IgnoreEnvironment bool
	IgnoreLibraries   bool

	CustomValues map[string]string

	Clock Clock
	IDs   IDGenerator
}

// Recorder collects events for one run. It is safe for concurrent use:
// instrumented functions may be called from several goroutines.
type Recorder struct {
	store Store
	opts  Options

	mu       sync.Mutex
	rec      ir.RunRecord
	finished bool

	once      sync.Once
	finishErr error
}

// New starts recording a run. The script file, when readable, is hashed and
// its source kept so the next run of the same script can be diffed against it.
func New(s Store, opts Options) (*Recorder, error) {
	if s == nil {
		return nil, errors.New("recorder: nil store")
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}

	r := &Recorder{store: s, opts: opts}
	r.rec = ir.RunRecord{
		UniqueID:     opts.IDs.Generate(),
		Author:       opts.Author,
		Description:  opts.Description,
		Command:      opts.Command,
		CommandArgs:  append([]string(nil), opts.Args...),
		CustomValues: maps.Clone(opts.CustomValues),
	}

	if opts.Script != "" {
		script, err := filepath.Abs(opts.Script)
		if err != nil {
			return nil, fmt.Errorf("recorder: script path: %w", err)
		}
		r.rec.Script = script
		if data, err := os.ReadFile(script); err == nil {
			r.rec.ScriptHash = ir.HashBytes(data)
			r.rec.ScriptSource = string(data)
		} else {
			r.warnLocked("could not read script %s: %v", script, err)
		}
	}

	if !opts.IgnoreEnvironment {
		if opts.Environment != nil {
			r.rec.Environment = append([]string(nil), opts.Environment...)
		} else {
			r.rec.Environment = []string{runtime.GOOS, runtime.GOARCH, runtime.Version()}
		}
	}

	slog.Debug("run started", "unique_id", r.rec.UniqueID, "script", r.rec.Script)
	return r, nil
}

// ID returns the unique_id of the run.
func (r *Recorder) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.UniqueID
}

// Log records one file event. It matches intercept.Recorder.
//
// The subject may be a path string, anything with a Name() method such as
// *os.File, or a fmt.Stringer. New entries are placed first, so a run's
// inputs and outputs read most recent first. Inputs are hashed immediately;
// outputs are hashed when the run finishes, after they have been written.
// A hashing failure still records the bare path and returns the error.
func (r *Recorder) Log(subject any, source intercept.Source) error {
	path, err := subjectPath(subject)
	if err != nil {
		return err
	}

	var (
		entry   = ir.NewEntry(path)
		hashErr error
	)
	if source == intercept.SourceInput && r.opts.HashInputs {
		digest, err := ir.HashFile(path)
		if err != nil {
			hashErr = err
		} else {
			entry.Hash = digest
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return ErrFinished
	}

	switch source {
	case intercept.SourceInput:
		r.rec.Inputs = prepend(r.rec.Inputs, entry)
	case intercept.SourceOutput:
		r.rec.Outputs = prepend(r.rec.Outputs, entry)
	default:
		return fmt.Errorf("unknown source %q", source)
	}

	slog.Debug("file recorded", "source", string(source), "path", path)
	if hashErr != nil {
		r.warnLocked("could not hash %s: %v", path, hashErr)
		return hashErr
	}
	return nil
}

// SetLibraries records which modules were instrumented.
func (r *Recorder) SetLibraries(mods []string) {
	if r.opts.IgnoreLibraries {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec.Libraries = append([]string(nil), mods...)
}

// SetCustomValue attaches a user-defined key/value pair to the run.
func (r *Recorder) SetCustomValue(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rec.CustomValues == nil {
		r.rec.CustomValues = make(map[string]string)
	}
	r.rec.CustomValues[key] = value
}

// Record returns a copy of the record as it stands.
func (r *Recorder) Record() ir.RunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Clone()
}

// Finish completes the record and inserts it into the store. Only the first
// call does any work; later calls return the first call's result.
func (r *Recorder) Finish(ctx context.Context) error {
	r.once.Do(func() {
		r.finishErr = r.finish(ctx)
	})
	return r.finishErr
}

func (r *Recorder) finish(ctx context.Context) error {
	r.mu.Lock()
	r.finished = true
	r.rec.Date = r.opts.Clock.Now().UTC()
	if r.opts.HashOutputs {
		r.hashOutputsLocked()
	}
	if !r.opts.IgnoreDiff {
		r.diffLocked(ctx)
	}
	rec := r.rec.Clone()
	r.mu.Unlock()

	if err := r.store.Insert(ctx, rec); err != nil {
		return fmt.Errorf("persist run %s: %w", rec.UniqueID, err)
	}
	slog.Info("run recorded",
		"unique_id", rec.UniqueID,
		"inputs", len(rec.Inputs),
		"outputs", len(rec.Outputs),
	)
	return nil
}

func (r *Recorder) hashOutputsLocked() {
	for i, e := range r.rec.Outputs {
		if e.HasHash() {
			continue
		}
		digest, err := ir.HashFile(e.Path)
		if err != nil {
			r.warnLocked("could not hash %s: %v", e.Path, err)
			continue
		}
		r.rec.Outputs[i].Hash = digest
	}
}

// diffLocked sets Diff to a patch from the previous run's script source.
func (r *Recorder) diffLocked(ctx context.Context) {
	if r.rec.Script == "" || r.rec.ScriptSource == "" {
		return
	}
	prev, err := r.store.LatestForScript(ctx, r.rec.Script)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		r.warnLocked("could not load previous run: %v", err)
		return
	}
	if prev.ScriptSource == "" || prev.ScriptSource == r.rec.ScriptSource {
		return
	}
	dmp := diffmatchpatch.New()
	r.rec.Diff = dmp.PatchToText(dmp.PatchMake(prev.ScriptSource, r.rec.ScriptSource))
}

func (r *Recorder) warnLocked(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	slog.Warn(msg, "unique_id", r.rec.UniqueID)
	r.rec.Warnings = append(r.rec.Warnings, msg)
}

// subjectPath turns an intercepted argument into an absolute path.
func subjectPath(subject any) (string, error) {
	var path string
	switch v := subject.(type) {
	case string:
		path = v
	case interface{ Name() string }:
		path = v.Name()
	case fmt.Stringer:
		path = v.String()
	default:
		return "", fmt.Errorf("cannot derive a path from %T", subject)
	}
	if path == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path of %s: %w", path, err)
	}
	return abs, nil
}

func prepend(entries []ir.Entry, e ir.Entry) []ir.Entry {
	return append([]ir.Entry{e}, entries...)
}
