package errors

import (
	"errors"
	"fmt"
)

// Sentinel kinds matched through errors.Is.
var (
	ErrScannerUnavailable   = errors.New("scanner unavailable")
	ErrScannerOutputInvalid = errors.New("scanner output invalid")
	ErrProposer             = errors.New("proposer error")
)

// ScannerUnavailableError is returned when the static analyzer cannot be started.
type ScannerUnavailableError struct {
	Scanner string
	Err     error
}

func (e *ScannerUnavailableError) Error() string {
	return fmt.Sprintf("scanner %q is unavailable: %v", e.Scanner, e.Err)
}

func (e *ScannerUnavailableError) Unwrap() error { return e.Err }

func (e *ScannerUnavailableError) Is(target error) bool { return target == ErrScannerUnavailable }

// NewScannerUnavailableError wraps err as a ScannerUnavailableError.
func NewScannerUnavailableError(scanner string, err error) error {
	return &ScannerUnavailableError{Scanner: scanner, Err: err}
}

// ScannerOutputInvalidError is returned when the static analyzer produced a result that cannot be decoded.
type ScannerOutputInvalidError struct {
	Scanner string
	Output  string
	Err     error
}

func (e *ScannerOutputInvalidError) Error() string {
	return fmt.Sprintf("scanner %q returned invalid output: %v", e.Scanner, e.Err)
}

func (e *ScannerOutputInvalidError) Unwrap() error { return e.Err }

func (e *ScannerOutputInvalidError) Is(target error) bool { return target == ErrScannerOutputInvalid }

// NewScannerOutputInvalidError wraps err as a ScannerOutputInvalidError keeping the raw output.
func NewScannerOutputInvalidError(scanner, output string, err error) error {
	return &ScannerOutputInvalidError{Scanner: scanner, Output: output, Err: err}
}

// ProposerError is returned when a proposer backend fails to produce a replacement.
type ProposerError struct {
	Model string
	Err   error
}

func (e *ProposerError) Error() string {
	return fmt.Sprintf("proposer %q failed: %v", e.Model, e.Err)
}

func (e *ProposerError) Unwrap() error { return e.Err }

func (e *ProposerError) Is(target error) bool { return target == ErrProposer }

// NewProposerError wraps err as a ProposerError.
func NewProposerError(model string, err error) error {
	return &ProposerError{Model: model, Err: err}
}

// CommandError represents an error that occurred during command execution.
type CommandError struct {
	ExitCode    int
	CommonError string
	Result      interface{}
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

// NewCommandError creates a new CommandError instance, encapsulating the result and the error message.
func NewCommandError(result interface{}, err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
		Result:      result,
	}
}
