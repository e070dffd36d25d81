// Package errors provides structured error types for mujoco-runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the offending native object kind, a field
// path, a detail message, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseVFS, errors.KindDuplicateName).
//		Object("vfs").
//		Value(name).
//		Detail("file %q already present", name).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TableFull(name, capacity)
//	err := errors.OutOfBounds(errors.PhaseMarshal, path, 10, 5)
//
// Sentinels (ErrTableFull, ErrDuplicateName, ErrFileNotFound, ...) match any
// phase, so callers can write errors.Is(err, errors.ErrTableFull).
//
// Invariant violations are not returned: Invariant panics with a
// KindInvariant error and Recovered turns such a panic back into an *Error.
package errors
