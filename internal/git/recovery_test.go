package git

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func goldenRecovery(t *testing.T, name string, commands []string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(strings.Join(commands, "\n")+"\n"))
}

func TestRecoveryCommands_WithBackupAndTarget(t *testing.T) {
	goldenRecovery(t, "recovery_with_backup",
		RecoveryCommands(BackupRef(testHead), "origin/main"))
}

func TestRecoveryCommands_NoBackup(t *testing.T) {
	goldenRecovery(t, "recovery_no_backup",
		RecoveryCommands("", ""))
}

func TestEmergencyRecoveryCommands_WithBackup(t *testing.T) {
	goldenRecovery(t, "emergency_with_backup",
		EmergencyRecoveryCommands(BackupRef(testHead)))
}

func TestEmergencyRecoveryCommands_NoBackup(t *testing.T) {
	goldenRecovery(t, "emergency_no_backup",
		EmergencyRecoveryCommands(""))
}

func TestStaticRecoveryCommands(t *testing.T) {
	assert.Equal(t, []string{"git status", "git reflog"}, GenericRecoveryCommands())
	assert.Equal(t, []string{"git status", "git stash", "git reset --hard HEAD"}, DirtyTreeRecoveryCommands())
	assert.Equal(t, []string{"git fetch", "git remote -v", "git status"}, FetchRecoveryCommands())
}
