package cli

import (
	"errors"
	"fmt"

	"schedupdate/internal/engine"
)

const (
	ExitSuccess           = 0
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
	ExitPrecondition      = 5
)

// InvocationError carries the exit code a command failure maps to.
type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

func configErrorf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitConfigError, Message: fmt.Sprintf(format, args...)}
}

func internalErrorf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInternalError, Message: fmt.Sprintf(format, args...)}
}

// ExitCode extracts a semantic exit code from a command error.
// Precondition failures map to ExitPrecondition; any other unknown error
// is ExitInternalError.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	if engine.IsPrecondition(err) {
		return ExitPrecondition
	}
	return ExitInternalError
}

// classified reports whether err already carries an exit code.
func classified(err error) bool {
	var invErr *InvocationError
	return errors.As(err, &invErr) || engine.IsPrecondition(err)
}
