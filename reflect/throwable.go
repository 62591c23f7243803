package reflect

import "github.com/metacall/metacall-go/value"

// Throwable marks its payload as an error-path result: it wraps a Value
// (possibly an Exception, possibly any other value) to signal "this
// computation produced an error" when returned through a Value channel,
// Errors inside a loader never leak as host-language
// exceptions across the boundary; they are always reified into a
// Throwable value.
type Throwable struct {
	Inner *value.Value
}

// EntityID implements value.Entity.
func (t *Throwable) EntityID() value.ID { return value.Throwable }

// String implements value.Entity.
func (t *Throwable) String() string {
	if t.Inner == nil {
		return "Throwable(<nil>)"
	}
	return "Throwable(" + t.Inner.Stringify() + ")"
}

// NewThrowableValue wraps inner as a Throwable *value.Value.
func NewThrowableValue(inner *value.Value) *value.Value {
	return value.CreateEntity(&Throwable{Inner: inner})
}

// NewThrowableFromException is a convenience for the common case of
// reifying a guest-language error directly into a throwable value.
func NewThrowableFromException(exc *Exception) *value.Value {
	return NewThrowableValue(value.CreateEntity(exc))
}
