// Package engine implements the safe synchronization state machine.
//
// A sync attempt proceeds: capture backup → verify clean tree → fetch →
// rebase attempt → (success | conflict abort | other failure) → verify →
// done. Failures below the mutation point are reported without recovery
// actions, since nothing changed. Failures at or after the rebase always
// attempt automatic recovery (abort, then forced rollback) before being
// surfaced, and every terminal failure carries manual recovery commands.
//
// Cancellation is threaded through as an error return distinct from any
// Outcome: once the mutation point is passed, a best-effort rollback runs
// before the cancellation propagates.
package engine
