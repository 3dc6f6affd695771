package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCommand_Flags(t *testing.T) {
	cmd := NewCheckCommand(&RootOptions{})
	assert.NotNil(t, cmd.Flags().Lookup("no-lint"))
	assert.NotNil(t, cmd.Flags().Lookup("no-test"))
}

func TestCheckLoadsConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codeup.yml"),
		[]byte("watchdog: [not, a, mapping]\n"), 0o644))
	chdir(t, dir)

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"check"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err, "a malformed config must surface, not be ignored")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCheckWithNoScriptsSucceeds(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdir(t, t.TempDir())

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"check"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())
}
