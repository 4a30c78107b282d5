package fault

import (
	"errors"
	"fmt"
)

// Error is the single error type of the runtime core.
//
// Every fallible core operation returns an *Error (possibly wrapped). The
// protocol boundary converts it into a response status via CodeOf.
type Error struct {
	// Code is the wire-visible status code.
	Code Code

	// Message is a human-readable description.
	Message string

	// Err is an optional underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the status code from err.
//
// Returns 0 for a nil error and UnhandledException for errors that do not
// carry a code.
func CodeOf(err error) Code {
	if err == nil {
		return 0
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return UnhandledException
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// IsCapacity reports whether err is a pool or queue exhaustion error.
func IsCapacity(err error) bool {
	return kindOf(err) == KindCapacity
}

// IsProtocol reports whether err is a protocol violation.
func IsProtocol(err error) bool {
	return kindOf(err) == KindProtocol
}

// IsOrdering reports whether err is an ordering violation.
func IsOrdering(err error) bool {
	return kindOf(err) == KindOrdering
}

// IsRange reports whether err is a range or type violation.
func IsRange(err error) bool {
	return kindOf(err) == KindRange
}

// IsNotFound reports whether err is a lookup failure.
func IsNotFound(err error) bool {
	return kindOf(err) == KindNotFound
}

func kindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code.Kind()
	}
	return KindUnknown
}
