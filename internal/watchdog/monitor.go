// Package watchdog detects hung runs by watching the shared activity clock.
//
// The Monitor is a liveness safety net, independent of the sync engine's
// control flow: correctness must never depend on it. Past a soft threshold
// of silence it warns once; past a hard threshold it prints a diagnostic
// snapshot of whatever is running plus a full goroutine dump, then
// terminates the whole process.
package watchdog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/zackees/codeup/internal/proc"
)

const (
	// DefaultInterval is how often the monitor polls the activity clock.
	DefaultInterval = 60 * time.Second

	// DefaultSoftLimit is the idle time after which a warning is emitted.
	DefaultSoftLimit = 4 * time.Minute

	// DefaultHardLimit is the idle time after which the process is
	// forcibly terminated with diagnostics.
	DefaultHardLimit = 5 * time.Minute

	// commandDisplayLimit truncates the command text in the diagnostic
	// block.
	commandDisplayLimit = 120

	// stackBufSize bounds the goroutine dump in the diagnostic block.
	stackBufSize = 1 << 20
)

// Monitor polls an ActivityClock and escalates when it stops advancing.
type Monitor struct {
	clock *proc.ActivityClock
	board *proc.StatusBoard

	interval time.Duration
	soft     time.Duration
	hard     time.Duration

	out io.Writer
	log *slog.Logger

	// now and exit are injectable for tests. exit defaults to os.Exit.
	now  func() time.Time
	exit func(code int)

	warned bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithThresholds overrides the poll interval and the soft/hard idle limits.
func WithThresholds(interval, soft, hard time.Duration) Option {
	return func(m *Monitor) {
		if interval > 0 {
			m.interval = interval
		}
		if soft > 0 {
			m.soft = soft
		}
		if hard > 0 {
			m.hard = hard
		}
	}
}

// WithClockSource overrides the wall clock (for tests).
func WithClockSource(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithExitFunc overrides process termination (for tests).
func WithExitFunc(exit func(code int)) Option {
	return func(m *Monitor) { m.exit = exit }
}

// New creates a Monitor watching clock and board. Output goes to out
// (usually os.Stderr).
func New(clock *proc.ActivityClock, board *proc.StatusBoard, out io.Writer, log *slog.Logger, opts ...Option) *Monitor {
	if out == nil {
		out = os.Stderr
	}
	if log == nil {
		log = slog.Default()
	}
	m := &Monitor{
		clock:    clock,
		board:    board,
		interval: DefaultInterval,
		soft:     DefaultSoftLimit,
		hard:     DefaultHardLimit,
		out:      out,
		log:      log,
		now:      time.Now,
		exit:     os.Exit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run polls until ctx is cancelled. Intended to run in its own goroutine
// for the lifetime of the program.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(m.now())
		}
	}
}

// check evaluates idle time as of now and escalates if needed. Exposed to
// Run and to tests; a single line of output between checks resets the
// warning so it is not repeated spuriously.
func (m *Monitor) check(now time.Time) {
	idle := m.clock.IdleFor(now)

	if idle < m.soft {
		m.warned = false
		return
	}

	if !m.warned {
		m.warned = true
		m.log.Warn("no output observed", "idle", idle.Round(time.Second))
		fmt.Fprintf(m.out, "Warning: no output for %s, still waiting...\n", idle.Round(time.Second))
	}

	if idle >= m.hard {
		m.dump(now, idle)
		m.exit(1)
	}
}

// dump prints the diagnostic block: what was running, for how long, whether
// a terminal is attached, and a full goroutine stack dump.
func (m *Monitor) dump(now time.Time, idle time.Duration) {
	fmt.Fprintf(m.out, "\n===== watchdog: process appears hung (idle %s) =====\n", idle.Round(time.Second))

	if status, active := m.board.Snapshot(); active {
		command := status.Command
		if len(command) > commandDisplayLimit {
			command = command[:commandDisplayLimit] + "..."
		}
		fmt.Fprintf(m.out, "Phase:       %s\n", status.Phase)
		fmt.Fprintf(m.out, "Command:     %s\n", command)
		fmt.Fprintf(m.out, "Elapsed:     %s\n", now.Sub(status.StartedAt).Round(time.Second))
		fmt.Fprintf(m.out, "Interactive: %v\n", status.Interactive)
	} else {
		fmt.Fprintln(m.out, "No command in flight.")
	}

	buf := make([]byte, stackBufSize)
	n := runtime.Stack(buf, true)
	fmt.Fprintf(m.out, "\nGoroutine dump:\n%s\n", buf[:n])
	fmt.Fprintln(m.out, "===== watchdog: terminating process =====")
}
