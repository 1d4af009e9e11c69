package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provtrack/internal/ir"
	"github.com/roach88/provtrack/internal/store"
	"github.com/roach88/provtrack/internal/testutil"
)

// testEnv is a provtrack home with a database seeded for one test.
type testEnv struct {
	home string
	db   string
}

func newTestEnv(t *testing.T, runs ...ir.RunRecord) testEnv {
	t.Helper()
	home := t.TempDir()
	env := testEnv{home: home, db: filepath.Join(home, "runs.db")}

	st, err := store.Open(env.db)
	require.NoError(t, err)
	defer st.Close()
	for _, r := range runs {
		require.NoError(t, st.Insert(context.Background(), r))
	}
	return env
}

// execute runs the root command with the env's home and database.
func (e testEnv) execute(args ...string) (stdout, stderr string, err error) {
	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(append([]string{"--home", e.home, "--db", e.db}, args...))
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func assertGolden(t *testing.T, name, got string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(got))
}

// firstRun and secondRun share an output digest so hash searches find both.
func firstRun() ir.RunRecord {
	return ir.RunRecord{
		UniqueID:    "0190b7c2-0001",
		Author:      "ana",
		Script:      "/home/u/analysis.go",
		Command:     "analysis",
		CommandArgs: []string{"--month", "may"},
		Environment: []string{"linux", "amd64", "go1.25"},
		Libraries:   []string{"fileio", "tabular.csv"},
		Date:        testutil.Epoch.Add(1 * time.Hour),
		Inputs:      []ir.Entry{ir.NewHashedEntry("/home/u/data/in.csv", "h-in")},
		Outputs:     []ir.Entry{ir.NewHashedEntry("/home/u/out/monthly_report_final.csv", "h1")},
	}
}

func secondRun() ir.RunRecord {
	r := firstRun()
	r.UniqueID = "0190b7c2-0002"
	r.Date = testutil.Epoch.Add(2 * time.Hour)
	r.Outputs = []ir.Entry{
		ir.NewHashedEntry("/home/u/out/monthly_report_final.csv", "h1"),
		ir.NewEntry("/home/u/out/summary.csv"),
	}
	r.Diff = "@@ -1 +1 @@\n-a\n+b\n"
	r.CustomValues = map[string]string{"dataset": "may"}
	return r
}
