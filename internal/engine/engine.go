package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zackees/codeup/internal/git"
)

// rollbackBudget bounds the best-effort rollback that runs after the
// original context was cancelled.
const rollbackBudget = 30 * time.Second

// Engine sequences one git operation at a time; there is exactly one
// instance per process and never a concurrent rebase or push.
type Engine struct {
	git      *git.Client
	backups  *git.BackupManager
	classify git.Classifier
	log      *slog.Logger
}

// New creates an Engine. A nil classify falls back to the built-in
// vocabulary classifier; a nil log falls back to slog.Default.
func New(client *git.Client, backups *git.BackupManager, classify git.Classifier, log *slog.Logger) *Engine {
	if classify == nil {
		classify = git.IsConflictOutput
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{git: client, backups: backups, classify: classify, log: log}
}

// Sync runs one full synchronization attempt against the rebase target
// derived from targetHint (see git.Client.ResolveRebaseTarget).
//
// The returned error is non-nil only for cancellation (or an inability to
// even run git); a cancelled attempt never produces a normal Outcome.
func (e *Engine) Sync(ctx context.Context, targetHint string) (Outcome, error) {
	target, err := e.git.ResolveRebaseTarget(ctx, targetHint)
	if err != nil {
		return e.infrastructureFailure(ctx, CodeCaptureFailed, "", err)
	}

	// CAPTURING_BACKUP. On failure nothing was mutated, so no rollback is
	// needed and only generic recovery applies.
	ref, err := e.backups.Capture(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		e.log.Error("backup capture failed", "error", err)
		return failureOutcome(CodeCaptureFailed, "",
			"Failed to capture pre-rebase state", git.GenericRecoveryCommands()), nil
	}
	e.log.Info("captured backup", "ref", ref.Short(), "target", target)

	// VERIFYING_CLEAN.
	clean, err := e.backups.VerifyCleanWorkingTree(ctx)
	if err != nil {
		return e.interrupted(ctx, ref, err)
	}
	if !clean {
		return failureOutcome(CodeDirtyWorkingTree, ref,
			"Working directory not clean", git.DirtyTreeRecoveryCommands()), nil
	}

	// FETCHING. Rebase is never attempted against stale remote refs, so a
	// fetch failure is terminal.
	fetchRes, err := e.git.Fetch(ctx)
	if err != nil {
		return e.interrupted(ctx, ref, err)
	}
	if fetchRes.ExitCode != 0 {
		return failureOutcome(CodeFetchFailed, ref,
			"Failed to fetch from remote", git.FetchRecoveryCommands()), nil
	}

	// Skip the rebase when the branch already contains the target's tip.
	needs, err := e.git.NeedsRebase(ctx, target)
	if err != nil {
		return e.interrupted(ctx, ref, err)
	}
	if !needs {
		e.log.Info("branch already up to date", "target", target)
		return successOutcome(ref), nil
	}

	// REBASING.
	rebaseRes, err := e.git.Rebase(ctx, target)
	if err != nil {
		return e.interrupted(ctx, ref, err)
	}

	if rebaseRes.ExitCode == 0 {
		// VERIFYING_RESULT. git's exit code alone is not trusted.
		verified, err := e.verifyResult(ctx)
		if err != nil {
			return e.interrupted(ctx, ref, err)
		}
		if verified {
			e.log.Info("rebase succeeded", "target", target)
			return successOutcome(ref), nil
		}
		e.log.Warn("rebase reported success but verification failed")
		return e.recoverAndFail(ctx, ref, target, CodeVerificationFailed,
			"Rebase completed but final state verification failed", false)
	}

	if e.classify(rebaseRes.Stdout, rebaseRes.Stderr) {
		e.log.Info("rebase conflicts detected, executing enhanced abort")
		return e.recoverAndFail(ctx, ref, target, CodeConflictDetected,
			"Rebase conflicts detected", true)
	}

	e.log.Error("rebase failed", "exit_code", rebaseRes.ExitCode)
	message := fmt.Sprintf("Rebase failed: %s", lastLine(rebaseRes.Stdout))
	return e.recoverAndFail(ctx, ref, target, CodeRebaseFailed, message, false)
}

// recoverAndFail runs the abort/rollback escalation and builds the terminal
// failure outcome. When recovery itself fails, the code escalates to
// CodeRollbackFailed and the emergency command list replaces the normal one.
func (e *Engine) recoverAndFail(ctx context.Context, ref git.BackupRef, target string, code FailureCode, message string, hadConflicts bool) (Outcome, error) {
	var recovered bool
	var err error
	if code == CodeVerificationFailed {
		// No rebase is mid-flight on this path; force-reset directly.
		recovered, err = e.backups.Rollback(ctx, ref)
	} else {
		recovered, err = e.backups.EnhancedAbort(ctx, ref)
	}
	if err != nil {
		return e.interrupted(ctx, ref, err)
	}

	commands := git.RecoveryCommands(ref, target)
	if !recovered {
		e.log.Error("automatic recovery failed, manual intervention required")
		code = CodeRollbackFailed
		commands = git.EmergencyRecoveryCommands(ref)
	}

	if hadConflicts {
		return conflictOutcome(ref, message, commands, code), nil
	}
	return failureOutcome(code, ref, message, commands), nil
}

// verifyResult re-checks the post-conditions of a successful rebase: the
// working tree is clean and HEAD still resolves.
func (e *Engine) verifyResult(ctx context.Context) (bool, error) {
	clean, err := e.backups.VerifyCleanWorkingTree(ctx)
	if err != nil {
		return false, err
	}
	if !clean {
		return false, nil
	}
	head, err := e.git.Head(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, err
		}
		return false, nil
	}
	return head != "", nil
}

// interrupted handles an error from a git invocation past the mutation
// point. Cancellation triggers a best-effort rollback on a detached,
// bounded context and then propagates; any other error is an
// infrastructure failure reported as a normal failure outcome.
func (e *Engine) interrupted(ctx context.Context, ref git.BackupRef, err error) (Outcome, error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		e.log.Info("sync interrupted, attempting rollback", "ref", ref.Short())
		if !ref.IsZero() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackBudget)
			defer cancel()
			if ok, rbErr := e.backups.Rollback(rctx, ref); rbErr != nil || !ok {
				e.log.Error("best-effort rollback failed after interruption", "error", rbErr)
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}
		return Outcome{}, err
	}
	return e.infrastructureFailure(ctx, CodeRebaseFailed, ref, err)
}

// infrastructureFailure covers errors where git itself could not be run.
func (e *Engine) infrastructureFailure(ctx context.Context, code FailureCode, ref git.BackupRef, err error) (Outcome, error) {
	if ctx.Err() != nil {
		return Outcome{}, ctx.Err()
	}
	e.log.Error("git invocation failed", "error", err)
	return failureOutcome(code, ref, err.Error(), git.GenericRecoveryCommands()), nil
}

// lastLine extracts the final non-empty line of merged output for one-line
// error messages.
func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "unknown error"
}
