package fault

import "fmt"

// Kind classifies an error for callers that render user-facing messages.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindComputation  Kind = "computation"
	KindCollaborator Kind = "collaborator"
	KindConcurrency  Kind = "concurrency"
)

// Error is a classified error with enough context to report which subsystem
// and operation failed and on what value, without exposing internals.
type Error struct {
	Kind      Kind
	Subsystem string // e.g. "turntable", "mbr", "plc", "sensors"
	Op        string // e.g. "decide", "dispatch", "latest"
	Value     string // offending value, if any
	Err       error  // wrapped cause, if any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s/%s", e.Kind, e.Subsystem, e.Op)
	if e.Value != "" {
		msg += fmt.Sprintf(" (value %q)", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause, enabling errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Validation builds a KindValidation error for an out-of-range or unknown value.
func Validation(subsystem, op string, value interface{}) *Error {
	return &Error{
		Kind:      KindValidation,
		Subsystem: subsystem,
		Op:        op,
		Value:     fmt.Sprint(value),
	}
}

// Collaborator wraps a failure from an external collaborator (sensor,
// actuator, knowledge lookup).
func Collaborator(subsystem, op string, err error) *Error {
	return &Error{
		Kind:      KindCollaborator,
		Subsystem: subsystem,
		Op:        op,
		Err:       err,
	}
}
