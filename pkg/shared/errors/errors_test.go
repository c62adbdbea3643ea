package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	cause := fmt.Errorf("exec: \"bandit\": executable file not found in $PATH")

	unavailable := fmt.Errorf("scan failed: %w", NewScannerUnavailableError("bandit", cause))
	assert.True(t, errors.Is(unavailable, ErrScannerUnavailable))
	assert.False(t, errors.Is(unavailable, ErrScannerOutputInvalid))
	assert.True(t, errors.Is(unavailable, cause))

	invalid := NewScannerOutputInvalidError("bandit", "{{", cause)
	assert.True(t, errors.Is(invalid, ErrScannerOutputInvalid))
	var typed *ScannerOutputInvalidError
	assert.True(t, errors.As(invalid, &typed))
	assert.Equal(t, "{{", typed.Output)

	proposer := NewProposerError("gpt-4o", cause)
	assert.True(t, errors.Is(proposer, ErrProposer))
	assert.Contains(t, proposer.Error(), "gpt-4o")
}

func TestCommandError(t *testing.T) {
	err := NewCommandError(nil, fmt.Errorf("boom"), 2)
	assert.Equal(t, 2, err.ExitCode)
	assert.EqualError(t, err, "boom")
}
