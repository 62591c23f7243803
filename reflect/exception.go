package reflect

import (
	"fmt"

	"github.com/metacall/metacall-go/value"
)

// Exception is the structured error carrier: message,
// label, code, stacktrace, and an optional attached value.
type Exception struct {
	Message    string
	Label      string
	Code       int
	Stacktrace string
	Attached   *value.Value
}

// EntityID implements value.Entity.
func (e *Exception) EntityID() value.ID { return value.Exception }

// String implements value.Entity; Error below reuses it.
func (e *Exception) String() string {
	if e.Label == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Label, e.Message)
}

// Error implements the standard error interface so an Exception can flow
// through ordinary Go error handling inside a loader backend before being
// reified into a Value at the boundary.
func (e *Exception) Error() string { return e.String() }

// CancelledException builds the synthetic exception a pending future is
// rejected with when its owning loader is destroyed before it settles.
func CancelledException() *Exception {
	return &Exception{Code: -1, Label: "Cancelled", Message: "the owning loader was destroyed"}
}

// TypeErrorException builds the exception raised when an argument cannot
// be cast to its signature's declared type.
func TypeErrorException(message string) *Exception {
	return &Exception{Label: "TypeError", Message: message}
}

// NewExceptionValue wraps an Exception as a *value.Value.
func NewExceptionValue(label, message string, code int, stacktrace string) *value.Value {
	return value.CreateEntity(&Exception{Label: label, Message: message, Code: code, Stacktrace: stacktrace})
}
