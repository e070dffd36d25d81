package errors

import "fmt"

// Invariant panics with a KindInvariant error. It is reserved for conditions
// that indicate a native contract breach or a marshalling bug, never for
// caller mistakes.
func Invariant(phase Phase, msg string, args ...any) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	panic(&Error{
		Phase:  phase,
		Kind:   KindInvariant,
		Detail: msg,
	})
}

// Violated panics with a KindInvariant error caused by err. The invariant
// keeps the phase, path and detail of err.
func Violated(err *Error) {
	panic(&Error{
		Phase:  err.Phase,
		Kind:   KindInvariant,
		Path:   err.Path,
		Object: err.Object,
		Detail: err.Detail,
		Value:  err.Value,
		Cause:  err,
	})
}

// Recovered converts a recovered panic value into an *Error when it was raised
// by Invariant. Any other value is returned as nil, false.
func Recovered(r any) (*Error, bool) {
	e, ok := r.(*Error)
	if !ok || e.Kind != KindInvariant {
		return nil, false
	}
	return e, true
}
