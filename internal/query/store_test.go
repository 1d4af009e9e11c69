package query

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provtrack/internal/ir"
	"github.com/roach88/provtrack/internal/store"
)

func TestEngine_StoreRoundTrip(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	want := run("0190b7c2-4a1e-7c3d-9f00-1b2c3d4e5f60", 10, ir.NewHashedEntry("/home/u/out.csv", "h-out"))
	want.Inputs = []ir.Entry{ir.NewEntry("/home/u/in.csv")}
	want.Command = "analysis"
	require.NoError(t, s.Insert(ctx, want))
	require.NoError(t, s.Insert(ctx, run("other", 11, ir.NewEntry("/home/u/else.csv"))))

	engine := New(s)

	res, err := engine.Search(ctx, Request{Subject: "/home/u/out.csv", Mode: ModeFilepath})
	require.NoError(t, err)
	require.Len(t, res.Runs, 1)

	got := res.Runs[0]
	assert.Equal(t, want.UniqueID, got.UniqueID)
	assert.Equal(t, want.Outputs, got.Outputs)
	assert.Equal(t, want.Inputs, got.Inputs)
	assert.Equal(t, want.Command, got.Command)
	assert.True(t, want.Date.Equal(got.Date))

	res, err = engine.Search(ctx, Request{Subject: "0190b7", Mode: ModeID})
	require.NoError(t, err)
	assert.Equal(t, []string{want.UniqueID}, ids(res.Runs))

	byID, err := engine.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "other", byID.UniqueID)

	latest, err := engine.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, ids(latest.Runs))
}
