package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provtrack/internal/ir"
)

func TestRun_ScriptChanges(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "script_changes.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	first, ok := result.Run("run-0001")
	require.True(t, ok)
	assert.False(t, first.HasDiff)
	assert.Equal(t, map[string]string{"dataset": "april"}, first.CustomValues)
	assert.Equal(t, ir.HashBytes([]byte("value\n1\n")), first.Outputs[0].Hash)

	second, ok := result.Run("run-0002")
	require.True(t, ok)
	assert.True(t, second.HasDiff)
	require.Len(t, second.Inputs, 2)
	assert.True(t, second.Inputs[0].HasHash())
	assert.False(t, second.Inputs[1].HasHash(), "missing file has no digest")
	require.Len(t, second.Warnings, 1)
	assert.Contains(t, second.Warnings[0], "could not hash $WORK/raw/missing.csv")
	assert.Equal(t, ir.HashBytes([]byte("value\n2\n")), second.Outputs[0].Hash)
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "one write",
		Runs: []RunSpec{
			{Steps: []Step{{Write: "out.txt", Content: "hello"}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	require.Len(t, result.Runs, 1)

	run := result.Runs[0]
	assert.Equal(t, "run-0001", run.UniqueID)
	assert.Empty(t, run.Inputs)
	assert.Equal(t, []ir.Entry{{Path: "$WORK/out.txt", Hash: ir.HashBytes([]byte("hello"))}}, run.Outputs)
}

func TestRun_UnexpectedStepFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected_failure",
		Description: "read of a file that does not exist",
		Runs: []RunSpec{
			{Steps: []Step{{Read: "absent.txt"}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "runs[0].steps[0]: read absent.txt")

	// The run is still persisted with a bare input.
	require.Len(t, result.Runs, 1)
	assert.Equal(t, []ir.Entry{{Path: "$WORK/absent.txt"}}, result.Runs[0].Inputs)
}

func TestRun_ExpectedErrorThatSucceeds(t *testing.T) {
	scenario := &Scenario{
		Name:        "no_error",
		Description: "a step marked as failing that works",
		Files:       map[string]string{"a.txt": "a"},
		Runs: []RunSpec{
			{Steps: []Step{{Read: "a.txt", ExpectError: true}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected an error")
}

func TestRun_QueryMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "query_mismatch",
		Description: "query expectations are checked",
		Files:       map[string]string{"in.txt": "x"},
		Runs: []RunSpec{
			{Steps: []Step{{Read: "in.txt"}}},
		},
		Queries: []QuerySpec{
			{Name: "wrong", Mode: "filepath", File: "in.txt", Expect: &QueryExpect{Outcome: "no_results"}},
			{Name: "empty", Mode: "regex", Subject: "["},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "wrong: no_results")
	assert.Contains(t, result.Errors[1], "query empty")

	q, ok := result.Query("wrong")
	require.True(t, ok)
	assert.Equal(t, "found", q.Outcome)
	assert.Equal(t, []string{"run-0001"}, q.IDs)

	_, ok = result.Query("empty")
	assert.False(t, ok, "failed queries have no outcome")
}

func TestRun_WorkPlaceholderInSubject(t *testing.T) {
	scenario := &Scenario{
		Name:        "placeholder",
		Description: "subjects may name the working directory",
		Files:       map[string]string{"in.txt": "x"},
		Runs: []RunSpec{
			{Steps: []Step{{Open: "in.txt"}}},
		},
		Queries: []QuerySpec{
			{
				Name:    "by_path",
				Mode:    "filepath",
				Subject: "$WORK/in.txt",
				Expect:  &QueryExpect{Outcome: "found", IDs: []string{"run-0001"}},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
