package proc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	// DefaultLineTimeout bounds how long the Runner waits for a single
	// output line before declaring the child hung.
	DefaultLineTimeout = 600 * time.Second

	// ExitNotFound is reserved for "executable not found". All other
	// non-zero codes pass through verbatim from the child.
	ExitNotFound = 127

	// ExitIdleTimeout marks a degraded Result produced after the per-line
	// read bound was exceeded, or the output stream became unreadable,
	// and the child was killed.
	ExitIdleTimeout = 124

	// killWait is how long the Runner waits for a killed child to die
	// before giving up on its exit status.
	killWait = 10 * time.Second
)

// Spec describes one command invocation.
type Spec struct {
	Args        []string      // argument vector, Args[0] is the executable
	Dir         string        // working directory ("" = inherit)
	Phase       string        // phase label for diagnostics, e.g. "FETCH"
	Quiet       bool          // suppress mirroring lines to the console
	Capture     bool          // accumulate lines into Result.Stdout
	LineTimeout time.Duration // per-line read bound (0 = runner default)
}

// Result is the immutable outcome of one completed command.
//
// Child stderr is redirected into the same stream as stdout, so Stderr is
// always empty in practice; it is kept so callers that conceptually consume
// both streams read naturally.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes commands one at a time, streaming their output.
//
// From the caller's point of view Run is a single blocking call with a
// bounded wait; internally the child's execution and the output drain are
// concurrent.
type Runner struct {
	clock       *ActivityClock
	board       *StatusBoard
	out         io.Writer
	log         *slog.Logger
	lineTimeout time.Duration
}

// NewRunner creates a Runner. The clock and board are shared with the
// watchdog by the caller; out receives mirrored output lines (usually
// os.Stdout).
func NewRunner(clock *ActivityClock, board *StatusBoard, out io.Writer, log *slog.Logger) *Runner {
	if out == nil {
		out = os.Stdout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		clock:       clock,
		board:       board,
		out:         out,
		log:         log,
		lineTimeout: DefaultLineTimeout,
	}
}

// Run spawns the command described by spec and drains its output until the
// child exits, the per-line read bound is exceeded, or ctx is cancelled.
//
// Cancellation kills the whole process group, waits briefly for it to die,
// and returns ctx's error; callers never observe a normal Result after a
// cancellation occurred.
func (r *Runner) Run(ctx context.Context, spec Spec) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(spec.Args) == 0 {
		return Result{}, fmt.Errorf("proc: empty command")
	}

	display := strings.Join(spec.Args, " ")
	r.log.Debug("running command", "phase", spec.Phase, "command", display)

	cmd := exec.Command(spec.Args[0], spec.Args[1:]...)
	cmd.Dir = spec.Dir
	setProcessGroup(cmd)

	// Merge stderr into the stdout stream: one pipe, both ends of the
	// child write to it.
	pr, pw, err := os.Pipe()
	if err != nil {
		return Result{}, fmt.Errorf("proc: create pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		if errors.Is(err, exec.ErrNotFound) {
			r.log.Error("executable not found", "command", display)
			return Result{ExitCode: ExitNotFound}, nil
		}
		return Result{}, fmt.Errorf("proc: start %q: %w", spec.Args[0], err)
	}
	// The parent's copy of the write end must close so the reader sees EOF
	// once the child exits.
	pw.Close()

	if r.board != nil {
		r.board.Begin(spec.Phase, display, time.Now())
		defer r.board.End()
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		readErr <- scanner.Err()
	}()

	timeout := spec.LineTimeout
	if timeout <= 0 {
		timeout = r.lineTimeout
	}

	var captured []string
	timer := time.NewTimer(timeout)
	defer timer.Stop()

drain:
	for {
		select {
		case <-ctx.Done():
			r.kill(cmd, pr, lines)
			return Result{}, ctx.Err()

		case line, ok := <-lines:
			if !ok {
				// A scan failure (a line over the buffer limit, a
				// broken pipe) leaves the child writing into a pipe
				// nobody reads; waiting on it would block forever.
				if err := <-readErr; err != nil {
					r.log.Error("output stream unreadable, killing process",
						"phase", spec.Phase, "command", display, "error", err)
					r.kill(cmd, pr, lines)
					return Result{ExitCode: ExitIdleTimeout, Stdout: strings.Join(captured, "\n")}, nil
				}
				break drain
			}
			if r.clock != nil {
				r.clock.Touch(time.Now())
			}
			if spec.Capture {
				captured = append(captured, line)
			}
			if !spec.Quiet {
				fmt.Fprintln(r.out, line)
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(timeout)

		case <-timer.C:
			r.log.Error("no output within line timeout, killing process",
				"phase", spec.Phase, "command", display, "timeout", timeout)
			r.kill(cmd, pr, lines)
			return Result{ExitCode: ExitIdleTimeout, Stdout: strings.Join(captured, "\n")}, nil
		}
	}

	code := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = 1
		}
	}
	pr.Close()

	r.log.Debug("command finished", "phase", spec.Phase, "exit_code", code)
	return Result{ExitCode: code, Stdout: strings.Join(captured, "\n")}, nil
}

// kill terminates the child's process group and waits briefly for the exit
// status to be collected so no zombie is left behind. The lines channel is
// drained so the reader goroutine can finish.
func (r *Runner) kill(cmd *exec.Cmd, pr *os.File, lines <-chan string) {
	killProcessGroup(cmd)
	pr.Close()
	go func() {
		for range lines {
		}
	}()

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(killWait):
		r.log.Warn("killed process did not exit in time", "pid", cmd.Process.Pid)
	}
}
