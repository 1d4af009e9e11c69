package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provtrack/internal/hooks"
)

func TestHooks_DefaultTargetsResolve(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := env.execute("hooks", "--strict")
	require.NoError(t, err)
	assert.Contains(t, stdout, "TARGET")
	assert.Contains(t, stdout, "fileio.ReadFile")
	assert.Contains(t, stdout, "tabular.csv.Table.Load")
	assert.NotContains(t, stdout, "skip:")
}

func TestHooks_UnresolvableTarget(t *testing.T) {
	env := newTestEnv(t)
	file := filepath.Join(env.home, "hooks.cue")
	require.NoError(t, os.WriteFile(file, []byte(`hooks: plotting: Savefig: source: "output"`), 0o644))

	stdout, _, err := env.execute("hooks", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, stdout, "skip: MODULE_NOT_FOUND")

	_, _, err = env.execute("hooks", "--file", file, "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestHooks_ConfiguredFile(t *testing.T) {
	env := newTestEnv(t)
	file := filepath.Join(env.home, "hooks.cue")
	require.NoError(t, os.WriteFile(file, []byte(`hooks: fileio: Open: source: "input"`), 0o644))
	writeConfig(t, env.home, "hooks:\n  file: "+file+"\n")

	stdout, _, err := env.execute("hooks", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"function": "Open"`)
	assert.Contains(t, stdout, `"ok": true`)
	assert.NotContains(t, stdout, "ReadFile")
}

func TestHooks_Source(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := env.execute("hooks", "--source")
	require.NoError(t, err)
	assert.Equal(t, hooks.DefaultSource(), stdout)
}

func TestHooks_BadFile(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.execute("hooks", "--file", filepath.Join(env.home, "missing.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
