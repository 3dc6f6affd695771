package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zackees/codeup/internal/engine"
	"github.com/zackees/codeup/internal/git"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "codeup", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["sync"])
	assert.True(t, names["check"])
	assert.True(t, names["history"])

	for _, flag := range []string{"verbose", "quiet", "log", "no-push", "no-rebase", "no-interactive"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing persistent flag %s", flag)
	}
}

func TestSyncCommand_Flags(t *testing.T) {
	cmd := NewSyncCommand(&RootOptions{})
	assert.NotNil(t, cmd.Flags().Lookup("journal"))
	assert.NotNil(t, cmd.Args, "accepts at most one branch argument")
}

func outcomeOutput(t *testing.T, target string, outcome engine.Outcome) string {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	printOutcome(cmd, target, outcome)
	return out.String()
}

func TestPrintOutcome_Success(t *testing.T) {
	got := outcomeOutput(t, "origin/main", engine.Outcome{Success: true})
	assert.Contains(t, got, "Successfully synchronized with origin/main")
}

func TestPrintOutcome_ConflictRestored(t *testing.T) {
	got := outcomeOutput(t, "origin/main", engine.Outcome{
		HadConflicts:     true,
		Code:             engine.CodeConflictDetected,
		ErrorMessage:     "Rebase conflicts detected",
		RecoveryCommands: git.RecoveryCommands("a1b2c3d4e5f6", "origin/main"),
	})
	assert.Contains(t, got, "conflicts detected with origin/main")
	assert.Contains(t, got, "restored to its pre-rebase state")
	assert.Contains(t, got, "git reset --hard a1b2c3d4e5f6")
}

func TestPrintOutcome_RollbackFailed(t *testing.T) {
	got := outcomeOutput(t, "origin/main", engine.Outcome{
		HadConflicts:     true,
		Code:             engine.CodeRollbackFailed,
		ErrorMessage:     "Rebase conflicts detected",
		RecoveryCommands: git.EmergencyRecoveryCommands("a1b2c3d4e5f6"),
	})
	assert.Contains(t, got, "manual intervention required")
	assert.NotContains(t, got, "restored to its pre-rebase state")
	assert.Contains(t, got, "git reflog --oneline -10")
}

func TestPrintOutcome_PlainFailure(t *testing.T) {
	got := outcomeOutput(t, "origin/main", engine.Outcome{
		Code:             engine.CodeFetchFailed,
		ErrorMessage:     "Failed to fetch from remote",
		RecoveryCommands: git.FetchRecoveryCommands(),
	})
	assert.Contains(t, got, "Sync failed: Failed to fetch from remote")
	assert.Contains(t, got, "git remote -v")
}

func TestSyncOutsideRepository(t *testing.T) {
	chdir(t, t.TempDir())

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"sync"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "not inside a git repository")
}
