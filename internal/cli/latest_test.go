package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatest_EmptyDatabase(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := env.execute("latest")
	require.NoError(t, err)
	assert.Equal(t, "Database is empty\n", stdout)

	stdout, _, err = env.execute("latest", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", stdout)
}

func TestLatest_WithDiff(t *testing.T) {
	env := newTestEnv(t, secondRun(), firstRun())

	stdout, _, err := env.execute("latest", "--diff")
	require.NoError(t, err)
	assertGolden(t, "latest_diff", stdout)
}

func TestLatest_JSON(t *testing.T) {
	env := newTestEnv(t, firstRun(), secondRun())

	stdout, _, err := env.execute("latest", "-j")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"unique_id": "0190b7c2-0002"`)
	assert.Contains(t, stdout, `"diff": "@@ -1 +1 @@\n-a\n+b\n"`)
}
