// Package testutil provides test doubles shared by the git and engine
// tests.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/zackees/codeup/internal/proc"
)

// ScriptRunner is a scripted stand-in for proc.Runner: commands are keyed
// by their joined argument vector and answered from a queue of canned
// results, so git interactions can be tested without a repository.
//
// Keys with multiple stubbed results are consumed in order; once the queue
// is exhausted the last result repeats. Unknown commands get the Default
// result (exit 0, no output, unless overridden).
type ScriptRunner struct {
	mu        sync.Mutex
	responses map[string][]proc.Result
	errs      map[string]error
	calls     []string

	// Default answers commands with no stub.
	Default proc.Result

	// OnCall, when set, observes every command before it is answered.
	// Tests use it to cancel contexts mid-sequence.
	OnCall func(command string)
}

// NewScriptRunner creates an empty ScriptRunner.
func NewScriptRunner() *ScriptRunner {
	return &ScriptRunner{
		responses: make(map[string][]proc.Result),
		errs:      make(map[string]error),
	}
}

// Stub queues results for the given command (joined argument vector).
func (r *ScriptRunner) Stub(command string, results ...proc.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[command] = append(r.responses[command], results...)
}

// StubErr makes the given command return an error.
func (r *ScriptRunner) StubErr(command string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[command] = err
}

// Calls returns the commands observed so far, in order.
func (r *ScriptRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// CallCount returns how many times command was run.
func (r *ScriptRunner) CallCount(command string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, call := range r.calls {
		if call == command {
			n++
		}
	}
	return n
}

// Run implements the runner contract.
func (r *ScriptRunner) Run(ctx context.Context, spec proc.Spec) (proc.Result, error) {
	command := strings.Join(spec.Args, " ")

	r.mu.Lock()
	r.calls = append(r.calls, command)
	onCall := r.OnCall
	r.mu.Unlock()

	if onCall != nil {
		onCall(command)
	}
	if err := ctx.Err(); err != nil {
		return proc.Result{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.errs[command]; ok {
		return proc.Result{}, err
	}
	queue, ok := r.responses[command]
	if !ok || len(queue) == 0 {
		return r.Default, nil
	}
	result := queue[0]
	if len(queue) > 1 {
		r.responses[command] = queue[1:]
	}
	return result, nil
}
