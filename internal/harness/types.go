package harness

import (
	"github.com/roach88/provtrack/internal/ir"
)

// Result contains the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step, query and assertion held.
	Pass bool

	// Runs summarizes the persisted runs in store order.
	Runs []RunSummary

	// Queries holds the outcome of every scenario query, in order.
	Queries []QueryOutcome

	// Errors contains all failure messages.
	Errors []string
}

// RunSummary is the part of a persisted run a scenario can observe.
// Paths are relative to the working directory ("$WORK/...").
type RunSummary struct {
	UniqueID     string
	Inputs       []ir.Entry
	Outputs      []ir.Entry
	Libraries    []string
	Warnings     []string
	CustomValues map[string]string
	HasDiff      bool
}

// QueryOutcome is what a scenario query returned.
type QueryOutcome struct {
	Name          string
	Mode          string
	Outcome       string
	IDs           []string
	Total         int
	MoreAvailable bool
}

// Run returns the summary of the run with the given id.
func (r *Result) Run(id string) (RunSummary, bool) {
	for _, run := range r.Runs {
		if run.UniqueID == id {
			return run, true
		}
	}
	return RunSummary{}, false
}

// Query returns the outcome of the named query.
func (r *Result) Query(name string) (QueryOutcome, bool) {
	for _, q := range r.Queries {
		if q.Name == name {
			return q, true
		}
	}
	return QueryOutcome{}, false
}

func (r *Result) fail(err error) {
	r.Pass = false
	r.Errors = append(r.Errors, err.Error())
}
