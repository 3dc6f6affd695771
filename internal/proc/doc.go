// Package proc supervises external commands for codeup.
//
// The Runner spawns one command at a time, merges the child's stderr into
// its stdout stream, and drains output line by line. Every observed line
// advances a shared ActivityClock and updates a StatusBoard describing what
// is currently running. The watchdog package reads both to detect hangs
// without participating in normal control flow.
//
// Reads are bounded: if no line arrives within the per-run line timeout the
// child is killed and a degraded Result is returned instead of blocking
// forever. Cancellation of the supplied context kills the whole process
// group and is reported as an error, never as a normal Result.
package proc
