// Package git drives the git executable through the process supervisor.
//
// git is treated strictly as an external process: its text output is
// interpreted heuristically, never parsed as a machine-readable format.
// The package provides the repository queries the sync engine needs
// (HEAD, status, branch and upstream resolution), the mutating operations
// (fetch, rebase, reset, push), the backup/rollback safety layer, the
// conflict classifier, and the recovery command advisor.
package git
