package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "provtrack", cmd.Use)
	assert.Contains(t, cmd.Long, "provenance")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"search", "latest", "debug", "hooks"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("home"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}

func TestSearchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	searchCmd, _, err := cmd.Find([]string{"search"})
	require.NoError(t, err)

	shorthands := map[string]string{
		"filepath": "p",
		"fuzzy":    "f",
		"regex":    "r",
		"id":       "i",
		"all":      "a",
		"json":     "j",
		"diff":     "d",
	}
	for name, short := range shorthands {
		flag := searchCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, short, flag.Shorthand, name)
	}
}

func TestRoot_BadConfigFile(t *testing.T) {
	env := newTestEnv(t)
	writeConfig(t, env.home, "log:\n  level: loud\n")

	_, _, err := env.execute("latest")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
