package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/provtrack/internal/ir"
)

// Snapshot renders a result as canonical JSON for golden comparison.
// Dates and environment are left out; everything else a scenario observes
// is deterministic.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	runs := make(ir.IRArray, len(result.Runs))
	for i, run := range result.Runs {
		runs[i] = runObject(run)
	}

	queries := make(ir.IRArray, len(result.Queries))
	for i, q := range result.Queries {
		ids := make(ir.IRArray, len(q.IDs))
		for j, id := range q.IDs {
			ids[j] = ir.IRString(id)
		}
		queries[i] = ir.IRObject{
			"name":           ir.IRString(q.Name),
			"mode":           ir.IRString(q.Mode),
			"outcome":        ir.IRString(q.Outcome),
			"ids":            ids,
			"total":          ir.IRInt(q.Total),
			"more_available": ir.IRBool(q.MoreAvailable),
		}
	}

	data, err := ir.MarshalCanonicalIndent(ir.IRObject{
		"scenario_name": ir.IRString(scenarioName),
		"runs":          runs,
		"queries":       queries,
	}, "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func runObject(run RunSummary) ir.IRObject {
	obj := ir.IRObject{
		"unique_id": ir.IRString(run.UniqueID),
		"inputs":    entriesIR(run.Inputs),
		"outputs":   entriesIR(run.Outputs),
		"libraries": stringsIR(run.Libraries),
		"has_diff":  ir.IRBool(run.HasDiff),
	}
	if len(run.Warnings) > 0 {
		obj["warnings"] = stringsIR(run.Warnings)
	}
	if len(run.CustomValues) > 0 {
		custom := make(ir.IRObject, len(run.CustomValues))
		for k, v := range run.CustomValues {
			custom[k] = ir.IRString(v)
		}
		obj["custom_values"] = custom
	}
	return obj
}

func entriesIR(entries []ir.Entry) ir.IRArray {
	arr := make(ir.IRArray, len(entries))
	for i, e := range entries {
		arr[i] = e.ToIR()
	}
	return arr
}

func stringsIR(s []string) ir.IRArray {
	arr := make(ir.IRArray, len(s))
	for i, v := range s {
		arr[i] = ir.IRString(v)
	}
	return arr
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
