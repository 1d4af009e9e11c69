package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/provtrack/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the persisted runs to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Runs     []RunSummary // Persisted runs for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Runs) > 0 {
		fmt.Fprintf(&buf, "\nRuns:\n")
		for _, run := range e.Runs {
			fmt.Fprintf(&buf, "  %s in=%v out=%v\n", run.UniqueID, entryPaths(run.Inputs), entryPaths(run.Outputs))
		}
	}
	return buf.String()
}

// evaluateAssertion dispatches to the check named by a.Type.
func evaluateAssertion(result *Result, a Assertion) error {
	if a.Type == AssertRunCount {
		return assertRunCount(result, a)
	}

	run, ok := result.Run(a.Run)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("run %s", a.Run),
			Actual:   "run not found",
			Runs:     result.Runs,
		}
	}

	switch a.Type {
	case AssertRunInputs:
		return assertPaths(result, a, entryPaths(run.Inputs))
	case AssertRunOutputs:
		return assertPaths(result, a, entryPaths(run.Outputs))
	case AssertLibraries:
		if !slices.Equal(run.Libraries, a.Modules) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s instrumented %v", a.Run, a.Modules),
				Actual:   fmt.Sprintf("%v", run.Libraries),
				Runs:     result.Runs,
			}
		}
		return nil
	case AssertHasDiff:
		if run.HasDiff != a.Diff {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s has_diff=%t", a.Run, a.Diff),
				Actual:   fmt.Sprintf("has_diff=%t", run.HasDiff),
				Runs:     result.Runs,
			}
		}
		return nil
	case AssertCustomValue:
		got, ok := run.CustomValues[a.Key]
		if !ok || got != a.Value {
			actual := "missing"
			if ok {
				actual = fmt.Sprintf("%q", got)
			}
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s %s=%q", a.Run, a.Key, a.Value),
				Actual:   actual,
				Runs:     result.Runs,
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertRunCount(result *Result, a Assertion) error {
	if len(result.Runs) != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d runs", a.Count),
			Actual:   fmt.Sprintf("%d runs", len(result.Runs)),
			Runs:     result.Runs,
		}
	}
	return nil
}

// assertPaths compares entry paths in order, most recent first.
func assertPaths(result *Result, a Assertion, actual []string) error {
	expected := make([]string, len(a.Paths))
	for i, p := range a.Paths {
		expected[i] = workPath(p)
	}
	if !slices.Equal(expected, actual) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s %v", a.Run, expected),
			Actual:   fmt.Sprintf("%v", actual),
			Runs:     result.Runs,
		}
	}
	return nil
}

// checkQuery compares a query outcome with its expectation.
func checkQuery(q QuerySpec, got QueryOutcome) error {
	want := q.Expect
	ids := want.IDs
	if ids == nil {
		ids = []string{}
	}
	if got.Outcome != want.Outcome || !slices.Equal(got.IDs, ids) || got.MoreAvailable != want.More {
		return &AssertionError{
			Type:     "query",
			Expected: fmt.Sprintf("%s: %s %v more=%t", q.Name, want.Outcome, ids, want.More),
			Actual:   fmt.Sprintf("%s %v more=%t", got.Outcome, got.IDs, got.MoreAvailable),
		}
	}
	return nil
}

func entryPaths(entries []ir.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}
