package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the pipeline the error occurred
type Phase string

const (
	PhaseScan    Phase = "scan"    // wasm section table walk
	PhaseExtract Phase = "extract" // DWARF text to line entries
	PhaseEncode  Phase = "encode"  // entries to source map
	PhaseRewrite Phase = "rewrite" // strip / append on the wasm binary
	PhaseConfig  Phase = "config"  // configuration loading and validation
	PhaseIO      Phase = "io"      // reading and writing files
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindOverflow     Kind = "overflow"
	KindTruncated    Kind = "truncated"
	KindInvalidUTF8  Kind = "invalid_utf8"
	KindInvalidData  Kind = "invalid_data"
	KindInvalidInput Kind = "invalid_input"
	KindIO           Kind = "io"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   string
	Offset int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Path != "" {
		b.WriteString(" in ")
		b.WriteString(e.Path)
	}

	if e.Offset > 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
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

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

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

// Path sets the file the error relates to
func (b *Builder) Path(path string) *Builder {
	b.err.Path = path
	return b
}

// Offset sets the byte offset within the input
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
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
func NotFound(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s not found", what),
	}
}

// Truncated creates an error for input that ends in the middle of a value
func Truncated(phase Phase, offset int, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Offset: offset,
		Detail: fmt.Sprintf("unexpected end of input reading %s", what),
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, offset int, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Offset: offset,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, offset int, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Offset: offset,
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

// IO wraps a file system failure for the given path
func IO(path, op string, cause error) *Error {
	return &Error{
		Phase:  PhaseIO,
		Kind:   KindIO,
		Path:   path,
		Detail: op,
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
