package cli

import (
	"errors"
	"fmt"
)

// Exit codes for CLI commands. The watchdog's hard path terminates the
// process directly and does not flow through these.
const (
	ExitSuccess      = 0   // successful execution
	ExitFailure      = 1   // sync/check failure (conflicts, dirty tree, rejected push)
	ExitCommandError = 2   // command error (not a git repository, bad config)
	ExitInterrupted  = 130 // user interruption (SIGINT convention)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Returns ExitFailure for
// plain errors and ExitSuccess for nil.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
