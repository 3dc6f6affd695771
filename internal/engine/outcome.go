package engine

import "github.com/zackees/codeup/internal/git"

// FailureCode categorizes terminal failures of a sync or push attempt.
type FailureCode string

const (
	// CodeCaptureFailed: the backup ref could not be resolved or
	// validated. Nothing was mutated, no rollback needed.
	CodeCaptureFailed FailureCode = "CAPTURE_FAILED"

	// CodeDirtyWorkingTree: precondition failed, nothing was mutated.
	CodeDirtyWorkingTree FailureCode = "DIRTY_WORKING_TREE"

	// CodeFetchFailed: network or remote issue before any rebase.
	CodeFetchFailed FailureCode = "FETCH_FAILED"

	// CodeConflictDetected: the rebase hit conflicts; rollback was
	// attempted.
	CodeConflictDetected FailureCode = "CONFLICT_DETECTED"

	// CodeRebaseFailed: the rebase failed for a non-conflict reason;
	// rollback was attempted.
	CodeRebaseFailed FailureCode = "REBASE_FAILED"

	// CodeVerificationFailed: git reported success but the
	// post-conditions do not hold.
	CodeVerificationFailed FailureCode = "VERIFICATION_FAILED"

	// CodeRollbackFailed: automatic recovery itself failed. The
	// repository state may be inconsistent; requires immediate human
	// attention and must not be retried by automation.
	CodeRollbackFailed FailureCode = "ROLLBACK_FAILED"

	// CodePushRejected: a non-fast-forward rejection survived the single
	// bounded sync-and-retry cycle.
	CodePushRejected FailureCode = "PUSH_REJECTED"

	// CodePushFailed: push failed for a reason a rebase cannot fix.
	CodePushFailed FailureCode = "PUSH_FAILED"
)

// Outcome is the result of one synchronization (or push) attempt.
//
// Exactly one variant holds: success, conflict (HadConflicts with a
// non-empty ErrorMessage), or other failure (neither flag, non-empty
// ErrorMessage). Every terminal failure carries a non-empty
// RecoveryCommands list; a caller never surfaces a bare failure with no
// next step.
type Outcome struct {
	Success          bool
	HadConflicts     bool
	BackupRef        git.BackupRef
	ErrorMessage     string
	RecoveryCommands []string
	Code             FailureCode
}

func successOutcome(ref git.BackupRef) Outcome {
	return Outcome{Success: true, BackupRef: ref}
}

func conflictOutcome(ref git.BackupRef, message string, commands []string, code FailureCode) Outcome {
	return Outcome{
		HadConflicts:     true,
		BackupRef:        ref,
		ErrorMessage:     message,
		RecoveryCommands: commands,
		Code:             code,
	}
}

func failureOutcome(code FailureCode, ref git.BackupRef, message string, commands []string) Outcome {
	return Outcome{
		BackupRef:        ref,
		ErrorMessage:     message,
		RecoveryCommands: commands,
		Code:             code,
	}
}
