package engine

import (
	"context"
	"fmt"

	"github.com/zackees/codeup/internal/git"
)

// PushPlan describes one push request.
type PushPlan struct {
	// TargetHint is the caller's rebase target hint; see
	// git.Client.ResolveRebaseTarget for how it is interpreted.
	TargetHint string

	// NoRebase skips synchronization entirely: the push is attempted
	// once and a rejection is terminal.
	NoRebase bool
}

// SyncAndPush synchronizes the branch and pushes it.
//
// Proactive ("branch is behind upstream") and reactive ("push was
// rejected") rebases share the same Sync path. The retry is bounded: a
// non-fast-forward rejection triggers exactly one sync-and-retry cycle,
// and a second rejection is terminal.
func (e *Engine) SyncAndPush(ctx context.Context, plan PushPlan) (Outcome, error) {
	branch, err := e.git.CurrentBranch(ctx)
	if err != nil {
		return e.infrastructureFailure(ctx, CodePushFailed, "", err)
	}
	upstream, err := e.git.UpstreamBranch(ctx)
	if err != nil {
		return e.infrastructureFailure(ctx, CodePushFailed, "", err)
	}
	// A branch without tracking needs push -u to establish it.
	setUpstream := upstream == "" && branch != ""

	var ref git.BackupRef
	if !plan.NoRebase {
		out, err := e.Sync(ctx, plan.TargetHint)
		if err != nil || !out.Success {
			return out, err
		}
		ref = out.BackupRef
	}

	res, err := e.git.Push(ctx, setUpstream, branch)
	if err != nil {
		return e.interrupted(ctx, ref, err)
	}
	if res.ExitCode == 0 {
		return successOutcome(ref), nil
	}

	if !git.IsPushRejected(res.Stdout) {
		return failureOutcome(CodePushFailed, ref,
			fmt.Sprintf("Push failed: %s", lastLine(res.Stdout)),
			git.GenericRecoveryCommands()), nil
	}

	if plan.NoRebase {
		return failureOutcome(CodePushRejected, ref,
			"Push rejected (non-fast-forward) and rebase is disabled",
			git.GenericRecoveryCommands()), nil
	}

	// One bounded retry: rebase once more, push once more.
	e.log.Info("push rejected, attempting rebase and retry")
	out, err := e.Sync(ctx, plan.TargetHint)
	if err != nil || !out.Success {
		return out, err
	}
	ref = out.BackupRef

	res, err = e.git.Push(ctx, setUpstream, branch)
	if err != nil {
		return e.interrupted(ctx, ref, err)
	}
	if res.ExitCode == 0 {
		return successOutcome(ref), nil
	}

	if git.IsPushRejected(res.Stdout) {
		return failureOutcome(CodePushRejected, ref,
			"Push rejected again after rebase; manual intervention required",
			git.RecoveryCommands(ref, "")), nil
	}
	return failureOutcome(CodePushFailed, ref,
		fmt.Sprintf("Push failed after rebase: %s", lastLine(res.Stdout)),
		git.GenericRecoveryCommands()), nil
}
