package engine

import (
	"fmt"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
)

// Exception records a failure caught at the tick boundary.
//
// The engine keeps the most recent one as its last-exception register;
// the tick itself keeps running.
type Exception struct {
	// Code is the status code of the failure. Panics are UnhandledException.
	Code fault.Code `json:"code"`

	// Message is the error text.
	Message string `json:"message"`

	// Stage names the part of the tick that failed, e.g. "machine:door"
	// or "lists".
	Stage string `json:"stage"`

	// Cycle is the cycle number the failure happened in.
	Cycle uint64 `json:"cycle"`
}

// Error implements the error interface.
func (e *Exception) Error() string {
	return fmt.Sprintf("cycle %d: %s: %s: %s", e.Cycle, e.Stage, e.Code, e.Message)
}

func newException(stage string, cycle uint64, err error) *Exception {
	return &Exception{
		Code:    fault.CodeOf(err),
		Message: err.Error(),
		Stage:   stage,
		Cycle:   cycle,
	}
}

// panicError converts a recovered panic value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fault.Wrap(fault.UnhandledException, err, "panic")
	}
	return fault.Newf(fault.UnhandledException, "panic: %v", r)
}
