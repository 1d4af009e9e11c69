package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGolden_ReportLineage(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "report_lineage.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "report_lineage.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSnapshot_OptionalFields(t *testing.T) {
	result := &Result{
		Runs: []RunSummary{{
			UniqueID:     "run-0001",
			Warnings:     []string{"could not hash $WORK/x"},
			CustomValues: map[string]string{"k": "v"},
		}},
	}

	data, err := Snapshot("optional", result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"warnings": [`)
	assert.Contains(t, string(data), `"custom_values": {`)
	assert.Contains(t, string(data), `"queries": []`)
}
