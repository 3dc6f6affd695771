package proc

import (
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Status describes the command currently being supervised. It exists only
// for diagnostics (the watchdog's stall report); control decisions never
// read it.
type Status struct {
	Phase       string    // e.g. "REBASE", "LINT"
	Command     string    // display string of the command
	StartedAt   time.Time // when the command began
	Interactive bool      // whether an interactive terminal is attached
}

// StatusBoard holds the Status of the command in flight, if any.
//
// The Runner calls Begin when a command starts and End when it finishes.
// Snapshot is safe to call from any goroutine.
type StatusBoard struct {
	mu      sync.Mutex
	current Status
	active  bool

	// isTerminal reports whether stdin is an interactive terminal.
	// Overridable in tests.
	isTerminal func() bool
}

// NewStatusBoard creates an empty board.
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{
		isTerminal: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}
}

// Begin records that a command has started.
func (b *StatusBoard) Begin(phase, command string, startedAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = Status{
		Phase:       phase,
		Command:     command,
		StartedAt:   startedAt,
		Interactive: b.isTerminal(),
	}
	b.active = true
}

// End clears the board.
func (b *StatusBoard) End() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = Status{}
	b.active = false
}

// Snapshot returns the current status and whether a command is in flight.
func (b *StatusBoard) Snapshot() (Status, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.active
}
