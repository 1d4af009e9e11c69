package ir

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() RunRecord {
	return RunRecord{
		UniqueID:     "0190b7c2-aaaa-7000-8000-000000000001",
		Author:       "analyst",
		Description:  "monthly numbers",
		Script:       "/home/u/report.go",
		ScriptHash:   "abc",
		ScriptSource: "package main\n",
		Command:      "/usr/local/bin/report",
		CommandArgs:  []string{"--month", "3"},
		Environment:  []string{"linux", "go1.25"},
		Libraries:    []string{"fileio", "tabular.csv"},
		Warnings:     []string{"could not hash /tmp/x"},
		Date:         time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC),
		ExitDate:     time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC),
		Inputs:       []Entry{NewHashedEntry("/home/u/in.csv", "h0")},
		Outputs: []Entry{
			NewHashedEntry("/home/u/monthly_report_final.csv", "h1"),
			NewEntry("/home/u/log.txt"),
		},
		Diff:         "@@ -1 +1 @@\n",
		CustomValues: map[string]string{"run": "nightly"},
	}
}

func TestRunRecordRoundTrip(t *testing.T) {
	rec := sampleRecord()

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded RunRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rec, decoded)

	again, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again), "serialization must be stable")
}

func TestRunRecordMinimalRoundTrip(t *testing.T) {
	rec := RunRecord{
		UniqueID: "id-1",
		Script:   "/s.go",
		Command:  "/bin/s",
		Date:     time.Unix(1, 0).UTC(),
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t,
		`{"command":"/bin/s","command_args":[],"date":"1970-01-01T00:00:01Z","inputs":[],"outputs":[],"script":"/s.go","unique_id":"id-1"}`,
		string(data))

	var decoded RunRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rec, decoded)
}

func TestRunRecordPreservesUnknownFields(t *testing.T) {
	doc := `{"unique_id":"x","date":"2024-01-02T03:04:05Z","inputs":[],"outputs":[],"gui_note":{"k":1.5},"tags":["a"]}`

	var rec RunRecord
	require.NoError(t, json.Unmarshal([]byte(doc), &rec))
	assert.Equal(t, IRObject{
		"gui_note": IRObject{"k": IRNumber("1.5")},
		"tags":     IRArray{IRString("a")},
	}, rec.Extra)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"gui_note":{"k":1.5}`)
	assert.Contains(t, string(out), `"tags":["a"]`)
}

func TestRunRecordKnownFieldsWinOverExtra(t *testing.T) {
	rec := RunRecord{UniqueID: "real", Extra: IRObject{FieldUniqueID: IRString("shadow")}}
	obj := rec.ToObject()
	assert.Equal(t, IRString("real"), obj[FieldUniqueID])
}

func TestRunRecordRequiresID(t *testing.T) {
	var rec RunRecord
	err := json.Unmarshal([]byte(`{"date":"2024-01-02T03:04:05Z"}`), &rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unique_id is required")
}

func TestRunRecordEntries(t *testing.T) {
	rec := sampleRecord()
	entries := rec.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "/home/u/monthly_report_final.csv", entries[0].Path)
	assert.Equal(t, "/home/u/in.csv", entries[2].Path)
}

func TestRunRecordClone(t *testing.T) {
	rec := sampleRecord()
	clone := rec.Clone()
	assert.Equal(t, rec, clone)

	clone.Outputs[0].Path = "/changed"
	clone.CommandArgs[0] = "--year"
	clone.CustomValues["run"] = "manual"

	assert.Equal(t, "/home/u/monthly_report_final.csv", rec.Outputs[0].Path)
	assert.Equal(t, "--month", rec.CommandArgs[0])
	assert.Equal(t, "nightly", rec.CustomValues["run"])
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{"rfc3339", "2024-03-01T12:00:00Z", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		{"offset", "2024-03-01T14:00:00+02:00", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		{"isoformat", "2024-03-01T12:00:00.250000", time.Date(2024, 3, 1, 12, 0, 0, 250000000, time.UTC)},
		{"tagged", "{TinyDate}:2024-03-01T12:00:00", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "got %s", got)
		})
	}

	_, err := ParseDate("yesterday")
	require.Error(t, err)
}

func TestDateFieldAcceptsUnixSeconds(t *testing.T) {
	var rec RunRecord
	require.NoError(t, json.Unmarshal([]byte(`{"unique_id":"a","date":2}`), &rec))
	assert.Equal(t, time.Unix(2, 0).UTC(), rec.Date)
}
