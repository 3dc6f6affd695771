package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitError(t *testing.T) {
	err := NewExitError(ExitCommandError, "not inside a git repository")
	assert.Equal(t, "not inside a git repository", err.Error())
	assert.Nil(t, err.Unwrap())

	cause := errors.New("permission denied")
	wrapped := WrapExitError(ExitFailure, "sync failed", cause)
	assert.Equal(t, "sync failed: permission denied", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain error")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad config")))
	assert.Equal(t, ExitInterrupted, GetExitCode(NewExitError(ExitInterrupted, "interrupted by user")))

	// Wrapped ExitErrors are still found.
	inner := NewExitError(ExitInterrupted, "interrupted by user")
	assert.Equal(t, ExitInterrupted, GetExitCode(fmt.Errorf("outer: %w", inner)))
}
