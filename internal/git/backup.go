package git

import (
	"context"
	"fmt"
	"strings"
)

// BackupRef is a resolved commit hash captured before a mutating operation.
// It is only ever produced by BackupManager.Capture, which validates that
// the repository can resolve it; an unvalidated ref must never be used for
// rollback. Refs live for one sync attempt and are never persisted.
type BackupRef string

// IsZero reports whether the ref was never captured.
func (r BackupRef) IsZero() bool { return r == "" }

// Short returns the 8-character prefix used in recovery output.
func (r BackupRef) Short() string {
	if len(r) <= 8 {
		return string(r)
	}
	return string(r[:8])
}

func (r BackupRef) String() string { return string(r) }

// BackupManager captures rollback points and restores them.
type BackupManager struct {
	git *Client
}

// NewBackupManager creates a BackupManager over the given client.
func NewBackupManager(git *Client) *BackupManager {
	return &BackupManager{git: git}
}

// Capture resolves HEAD and then independently verifies the object exists.
// The second round-trip guards against reading HEAD while the object
// database is in an inconsistent state. A failure of either step returns an
// error, never a silently-empty ref.
func (m *BackupManager) Capture(ctx context.Context) (BackupRef, error) {
	head, err := m.git.Head(ctx)
	if err != nil {
		return "", fmt.Errorf("capture backup: %w", err)
	}
	if head == "" {
		return "", fmt.Errorf("capture backup: empty HEAD")
	}

	exists, err := m.git.ObjectExists(ctx, head)
	if err != nil {
		return "", fmt.Errorf("capture backup: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("capture backup: ref %s does not resolve", head)
	}
	return BackupRef(head), nil
}

// VerifyCleanWorkingTree is true only when the porcelain status output is
// empty: any pending change, staged or not, fails the check.
func (m *BackupManager) VerifyCleanWorkingTree(ctx context.Context) (bool, error) {
	status, err := m.git.StatusPorcelain(ctx)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(status) == "", nil
}

// VerifyStateMatches reports whether HEAD equals ref and the working tree
// is clean. Both must hold; a matching HEAD over a dirty tree fails.
func (m *BackupManager) VerifyStateMatches(ctx context.Context, ref BackupRef) (bool, error) {
	if ref.IsZero() {
		return false, nil
	}
	head, err := m.git.Head(ctx)
	if err != nil {
		return false, err
	}
	if head != string(ref) {
		return false, nil
	}
	return m.VerifyCleanWorkingTree(ctx)
}

// Rollback force-resets the repository to ref. A rebase or merge left
// mid-flight is aborted first. The rollback only counts as successful when
// both post-conditions hold: HEAD equals ref and the tree is clean. A
// reset that succeeds by exit code but leaves a dirty tree is a failure.
func (m *BackupManager) Rollback(ctx context.Context, ref BackupRef) (bool, error) {
	if ref.IsZero() {
		return false, fmt.Errorf("rollback: no backup reference available")
	}

	status, err := m.git.Status(ctx)
	if err != nil {
		return false, err
	}
	if strings.Contains(strings.ToLower(status), "rebase in progress") {
		m.git.log.Info("aborting active rebase before rollback")
		if _, err := m.git.RebaseAbort(ctx); err != nil {
			return false, err
		}
	}

	m.git.log.Info("rolling back", "ref", ref.Short())
	res, err := m.git.ResetHard(ctx, string(ref))
	if err != nil {
		return false, err
	}
	if res.ExitCode != 0 {
		m.git.log.Error("rollback reset failed", "exit_code", res.ExitCode, "output", res.Stdout)
		return false, nil
	}

	return m.VerifyStateMatches(ctx, ref)
}

// EnhancedAbort aborts an in-progress rebase and verifies the repository is
// back at ref. When the abort fails, or the post-abort state does not match
// the backup, it escalates to a forced rollback.
func (m *BackupManager) EnhancedAbort(ctx context.Context, ref BackupRef) (bool, error) {
	res, err := m.git.RebaseAbort(ctx)
	if err != nil {
		return false, err
	}

	if res.ExitCode == 0 {
		ok, err := m.VerifyStateMatches(ctx, ref)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		m.git.log.Warn("rebase aborted but state verification failed, escalating to rollback")
		return m.Rollback(ctx, ref)
	}

	m.git.log.Error("rebase abort failed, escalating to rollback", "exit_code", res.ExitCode)
	return m.Rollback(ctx, ref)
}
