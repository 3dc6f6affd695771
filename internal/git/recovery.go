package git

import "fmt"

// RecoveryCommands builds the ordered manual-recovery instructions shown
// after a failure past the mutation point. The strings are plain text
// intended for direct copy-paste.
func RecoveryCommands(ref BackupRef, target string) []string {
	commands := []string{"# Manual recovery options:"}
	if !ref.IsZero() {
		commands = append(commands,
			fmt.Sprintf("# Backup reference: %s...", ref.Short()),
			fmt.Sprintf("git reset --hard %s", ref),
		)
	}
	if target != "" {
		commands = append(commands, fmt.Sprintf("git rebase %s", target))
	}
	commands = append(commands, "git reflog", "git status")
	return commands
}

// EmergencyRecoveryCommands builds the most aggressive instruction list,
// used when rollback itself failed and the repository state may be
// inconsistent.
func EmergencyRecoveryCommands(ref BackupRef) []string {
	commands := []string{
		"# Emergency recovery options:",
		"git status",
		"git reflog --oneline -10",
	}
	if !ref.IsZero() {
		commands = append(commands,
			fmt.Sprintf("git reset --hard %s", ref),
			fmt.Sprintf("# Backup reference: %s...", ref.Short()),
		)
	} else {
		commands = append(commands,
			"git reset --hard ORIG_HEAD",
			"git fsck --lost-found",
		)
	}
	return commands
}

// GenericRecoveryCommands is shown for failures below the mutation point,
// where nothing was changed and the only next step is inspection.
func GenericRecoveryCommands() []string {
	return []string{"git status", "git reflog"}
}

// DirtyTreeRecoveryCommands suggests clearing a dirty working tree.
func DirtyTreeRecoveryCommands() []string {
	return []string{"git status", "git stash", "git reset --hard HEAD"}
}

// FetchRecoveryCommands suggests re-attempting a failed fetch and checking
// connectivity.
func FetchRecoveryCommands() []string {
	return []string{"git fetch", "git remote -v", "git status"}
}
