package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zackees/codeup/internal/proc"
	"github.com/zackees/codeup/internal/testutil"
)

const rejectedPush = "! [rejected]        feature -> feature (non-fast-forward)\n"

// stubBranchInfo scripts the branch and upstream lookups that every push
// starts with.
func stubBranchInfo(script *testutil.ScriptRunner, upstream string) {
	script.Stub("git branch --show-current", proc.Result{Stdout: "feature\n"})
	if upstream == "" {
		script.Stub("git rev-parse --abbrev-ref --symbolic-full-name @{u}",
			proc.Result{ExitCode: 128, Stdout: "fatal: no upstream configured\n"})
		return
	}
	script.Stub("git rev-parse --abbrev-ref --symbolic-full-name @{u}",
		proc.Result{Stdout: upstream + "\n"})
}

func TestSyncAndPush_Success(t *testing.T) {
	script := testutil.NewScriptRunner()
	stubBranchInfo(script, "origin/feature")
	stubPreamble(script, false)
	script.Stub("git push", proc.Result{})

	out, err := newTestEngine(script).SyncAndPush(context.Background(), PushPlan{TargetHint: "main"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, 1, script.CallCount("git push"))
}

func TestSyncAndPush_SetsUpstreamWhenUntracked(t *testing.T) {
	script := testutil.NewScriptRunner()
	stubBranchInfo(script, "")
	stubPreamble(script, false)
	script.Stub("git push -u origin feature", proc.Result{})

	out, err := newTestEngine(script).SyncAndPush(context.Background(), PushPlan{TargetHint: "main"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, 1, script.CallCount("git push -u origin feature"))
	assert.Zero(t, script.CallCount("git push"))
}

func TestSyncAndPush_RejectionTriggersOneRetry(t *testing.T) {
	script := testutil.NewScriptRunner()
	stubBranchInfo(script, "origin/feature")
	stubPreamble(script, false)
	script.Stub("git push",
		proc.Result{ExitCode: 1, Stdout: rejectedPush},
		proc.Result{},
	)

	out, err := newTestEngine(script).SyncAndPush(context.Background(), PushPlan{TargetHint: "main"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, 2, script.CallCount("git push"))
	assert.Equal(t, 2, script.CallCount("git fetch"), "the retry re-synchronizes first")
}

func TestSyncAndPush_SecondRejectionIsTerminal(t *testing.T) {
	script := testutil.NewScriptRunner()
	stubBranchInfo(script, "origin/feature")
	stubPreamble(script, false)
	script.Stub("git push", proc.Result{ExitCode: 1, Stdout: rejectedPush})

	out, err := newTestEngine(script).SyncAndPush(context.Background(), PushPlan{TargetHint: "main"})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, CodePushRejected, out.Code)
	assert.Contains(t, out.ErrorMessage, "again after rebase")
	assert.Equal(t, 2, script.CallCount("git push"), "exactly one retry, never more")
}

func TestSyncAndPush_NoRebaseRejectionIsTerminal(t *testing.T) {
	script := testutil.NewScriptRunner()
	stubBranchInfo(script, "origin/feature")
	script.Stub("git push", proc.Result{ExitCode: 1, Stdout: rejectedPush})

	out, err := newTestEngine(script).SyncAndPush(context.Background(), PushPlan{TargetHint: "main", NoRebase: true})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, CodePushRejected, out.Code)
	assert.Equal(t, 1, script.CallCount("git push"))
	assert.Zero(t, script.CallCount("git fetch"), "rebase is disabled, no sync runs")
}

func TestSyncAndPush_NonRejectionFailure(t *testing.T) {
	script := testutil.NewScriptRunner()
	stubBranchInfo(script, "origin/feature")
	stubPreamble(script, false)
	script.Stub("git push", proc.Result{
		ExitCode: 128,
		Stdout:   "fatal: Authentication failed for 'https://example.com/repo.git'\n",
	})

	out, err := newTestEngine(script).SyncAndPush(context.Background(), PushPlan{TargetHint: "main"})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, CodePushFailed, out.Code)
	assert.Equal(t, 1, script.CallCount("git push"), "a rebase cannot fix this, no retry")
}

func TestSyncAndPush_SyncFailureShortCircuits(t *testing.T) {
	script := testutil.NewScriptRunner()
	stubBranchInfo(script, "origin/feature")
	script.Stub("git rev-parse HEAD", proc.Result{Stdout: testHead + "\n"})
	script.Stub("git cat-file -e "+testHead, proc.Result{})
	script.Stub("git status --porcelain", proc.Result{Stdout: " M dirty.go\n"})

	out, err := newTestEngine(script).SyncAndPush(context.Background(), PushPlan{TargetHint: "main"})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, CodeDirtyWorkingTree, out.Code)
	assert.Zero(t, script.CallCount("git push"), "never push after a failed sync")
}
