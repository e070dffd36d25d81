package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad      Phase = "load"      // model compilation or binary load
	PhaseVFS       Phase = "vfs"       // virtual file table
	PhaseMarshal   Phase = "marshal"   // native arrays to Go values
	PhaseSerialize Phase = "serialize" // model to binary
	PhaseRuntime   Phase = "runtime"   // stepping and state access
	PhaseConfig    Phase = "config"    // configuration loading
	PhaseNative    Phase = "native"    // binding layer
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindTableFull         Kind = "table_full"
	KindDuplicateName     Kind = "duplicate_name"
	KindNameTooLong       Kind = "name_too_long"
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidData       Kind = "invalid_data"
	KindNative            Kind = "native"
	KindDimensionMismatch Kind = "dimension_mismatch"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindInvalidEnum       Kind = "invalid_enum"
	KindInvalidUTF8       Kind = "invalid_utf8"
	KindNilPointer        Kind = "nil_pointer"
	KindClosed            Kind = "closed"
	KindInvariant         Kind = "invariant"
	KindUnavailable       Kind = "unavailable"
	KindOverflow          Kind = "overflow"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Object string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Object != "" {
		b.WriteString(": ")
		b.WriteString(e.Object)
	}

	if e.Detail != "" {
		if e.Object != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase == "" {
			return e.Kind == t.Kind
		}
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks. They match any phase.
var (
	ErrFileNotFound      = &Error{Kind: KindNotFound}
	ErrTableFull         = &Error{Kind: KindTableFull}
	ErrDuplicateName     = &Error{Kind: KindDuplicateName}
	ErrNameTooLong       = &Error{Kind: KindNameTooLong}
	ErrDimensionMismatch = &Error{Kind: KindDimensionMismatch}
	ErrClosed            = &Error{Kind: KindClosed}
	ErrNative            = &Error{Kind: KindNative}
	ErrUnavailable       = &Error{Kind: KindUnavailable}
)

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Object sets the native object kind (body, geom, vfs file...)
func (b *Builder) Object(o string) *Builder {
	b.err.Object = o
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Object: what,
		Detail: fmt.Sprintf("%q not found", name),
		Value:  name,
	}
}

// FileNotFound creates the error returned when a model path is not a regular file
func FileNotFound(path string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindNotFound,
		Object: "file",
		Detail: fmt.Sprintf("%q is not a regular file", path),
		Value:  path,
	}
}

// TableFull creates a VFS capacity error
func TableFull(name string, capacity int) *Error {
	return &Error{
		Phase:  PhaseVFS,
		Kind:   KindTableFull,
		Object: "vfs",
		Detail: fmt.Sprintf("cannot add %q: table holds %d files", name, capacity),
		Value:  name,
	}
}

// DuplicateName creates a VFS name collision error
func DuplicateName(name string) *Error {
	return &Error{
		Phase:  PhaseVFS,
		Kind:   KindDuplicateName,
		Object: "vfs",
		Detail: fmt.Sprintf("file %q already present", name),
		Value:  name,
	}
}

// NameTooLong creates a VFS name length error
func NameTooLong(name string, limit int) *Error {
	return &Error{
		Phase:  PhaseVFS,
		Kind:   KindNameTooLong,
		Object: "vfs",
		Detail: fmt.Sprintf("name of %d bytes exceeds limit %d", len(name), limit),
		Value:  name,
	}
}

// Native wraps a message reported by the engine through its error buffer
func Native(phase Phase, msg string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNative,
		Detail: msg,
	}
}

// DimensionMismatch creates a length mismatch error
func DimensionMismatch(phase Phase, what string, got, want int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDimensionMismatch,
		Object: what,
		Detail: fmt.Sprintf("got %d values, want %d", got, want),
		Value:  got,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// InvalidEnum creates an invalid enum value error
func InvalidEnum(phase Phase, path []string, value any, enumType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidEnum,
		Path:   path,
		Object: enumType,
		Detail: fmt.Sprintf("invalid enum value %v for %s", value, enumType),
		Value:  value,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Closed creates a use-after-close error
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Object: what,
		Detail: "already closed",
	}
}

// Unavailable creates an error for a missing native library
func Unavailable(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseNative,
		Kind:   KindUnavailable,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a model loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
