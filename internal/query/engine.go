package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/provtrack/internal/ir"
	"github.com/roach88/provtrack/internal/store"
)

// Source is the part of the record store the engine reads from.
type Source interface {
	Search(ctx context.Context, pred store.Predicate) ([]ir.RunRecord, error)
}

// Outcome classifies a result.
type Outcome string

const (
	// OutcomeFound means Runs holds at least one record.
	OutcomeFound Outcome = "found"

	// OutcomeNoResults means the query matched nothing.
	OutcomeNoResults Outcome = "no_results"

	// OutcomeEmpty means the store holds no runs at all (Latest only).
	OutcomeEmpty Outcome = "empty"

	// OutcomeUnknownQuery means the request named an unsupported mode.
	OutcomeUnknownQuery Outcome = "unknown_query"
)

// Request is one lookup.
type Request struct {
	// Subject is a file path, digest, pattern or id prefix depending on Mode.
	Subject string

	// Mode selects the matching strategy. Empty means ModeHash.
	Mode Mode

	// All asks for every match oldest first instead of only the most recent.
	All bool
}

// Result is the answer to a Request.
type Result struct {
	Outcome Outcome
	Mode    Mode

	// Runs holds the selected records: every match when ShowAll, otherwise
	// only the most recent one.
	Runs []ir.RunRecord

	// Total is the number of matching runs before selection.
	Total int

	// ShowAll reports whether every match was selected, either because it
	// was requested or because the mode forces it.
	ShowAll bool

	// MoreAvailable is set when only the most recent of several matches
	// was selected.
	MoreAvailable bool
}

// Found reports whether the result carries any runs.
func (r Result) Found() bool {
	return r.Outcome == OutcomeFound
}

// Engine answers lookups against a Source.
type Engine struct {
	source Source
}

// New creates an engine reading from source.
func New(source Source) *Engine {
	return &Engine{source: source}
}

// Search runs a request.
//
// Unknown modes yield OutcomeUnknownQuery and a nil error. Invalid
// subjects yield a *QueryError. Store failures are wrapped and returned.
func (e *Engine) Search(ctx context.Context, req Request) (Result, error) {
	mode := req.Mode
	if mode == "" {
		mode = ModeHash
	}
	if !mode.Valid() {
		slog.Debug("unknown query mode", "mode", string(mode))
		return Result{Outcome: OutcomeUnknownQuery, Mode: mode}, nil
	}

	m, err := Compile(mode, req.Subject)
	if err != nil {
		return Result{Mode: mode}, err
	}

	matches, err := e.source.Search(ctx, m.Match)
	if err != nil {
		return Result{Mode: mode}, fmt.Errorf("search runs: %w", err)
	}
	SortByDate(matches)

	slog.Debug("query evaluated", "mode", string(mode), "subject", req.Subject, "matches", len(matches))
	return selectRuns(mode, matches, req.All || mode.ForcesAll()), nil
}

// Latest returns the most recent run in the store.
// An empty store yields OutcomeEmpty.
func (e *Engine) Latest(ctx context.Context) (Result, error) {
	runs, err := e.source.Search(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("search runs: %w", err)
	}
	if len(runs) == 0 {
		return Result{Outcome: OutcomeEmpty}, nil
	}
	SortByDate(runs)
	return Result{
		Outcome: OutcomeFound,
		Runs:    runs[len(runs)-1:],
		Total:   len(runs),
	}, nil
}

// Get looks up one run by its exact unique_id, for sources that support it.
func (e *Engine) Get(ctx context.Context, id string) (ir.RunRecord, error) {
	if g, ok := e.source.(interface {
		Get(ctx context.Context, id string) (ir.RunRecord, error)
	}); ok {
		return g.Get(ctx, id)
	}
	runs, err := e.source.Search(ctx, func(rec ir.RunRecord) bool { return rec.UniqueID == id })
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("search runs: %w", err)
	}
	if len(runs) == 0 {
		return ir.RunRecord{}, fmt.Errorf("get run %s: %w", id, store.ErrNotFound)
	}
	return runs[0], nil
}

// IsNotFound reports whether err means a run does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// SortByDate orders runs ascending by date. Equal dates are ordered by
// store sequence, then left as given.
func SortByDate(runs []ir.RunRecord) {
	sort.SliceStable(runs, func(i, j int) bool {
		a, b := runs[i], runs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Seq < b.Seq
	})
}

func selectRuns(mode Mode, matches []ir.RunRecord, all bool) Result {
	res := Result{Mode: mode, Total: len(matches), ShowAll: all}
	if len(matches) == 0 {
		res.Outcome = OutcomeNoResults
		res.Runs = []ir.RunRecord{}
		return res
	}

	res.Outcome = OutcomeFound
	if all {
		res.Runs = matches
		return res
	}
	res.Runs = matches[len(matches)-1:]
	res.MoreAvailable = len(matches) > 1
	return res
}
