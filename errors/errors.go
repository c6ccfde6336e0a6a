package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseHeader   Phase = "header"   // textual header parsing
	PhaseDialect  Phase = "dialect"  // dialect resolution
	PhaseBody     Phase = "body"     // waveform body decoding
	PhaseSteps    Phase = "steps"    // step range computation
	PhaseAccess   Phase = "access"   // trace lookup and windowing
	PhaseStream   Phase = "stream"   // chunked forward reading
	PhaseCache    Phase = "cache"    // result cache operations
	PhaseEncode   Phase = "encode"   // raw file writing
	PhaseValidate Phase = "validate" // model validation before write
)

// Kind categorizes the error
type Kind string

const (
	KindParse         Kind = "parse"
	KindTruncated     Kind = "truncated"
	KindUnsupported   Kind = "unsupported_dialect"
	KindTraceNotFound Kind = "trace_not_found"
	KindValidation    Kind = "validation"
	KindEncoding      Kind = "encoding"
	KindIO            Kind = "io"
)

// Error is the structured error type used throughout the library.
// Offset is a byte position in the source (-1 when unknown); Line is a
// 1-based header line number (0 when unknown). Want/Got carry byte counts
// for truncation errors.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	File   string
	Trace  string
	Detail string
	Offset int64
	Line   int
	Want   int64
	Got    int64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.File != "" {
		b.WriteByte(' ')
		b.WriteString(e.File)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	} else if e.Offset > 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}
	if e.Trace != "" {
		fmt.Fprintf(&b, " trace %q", e.Trace)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Kind == KindTruncated && e.Want > 0 {
		fmt.Fprintf(&b, " (expected %d bytes, have %d)", e.Want, e.Got)
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
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// File sets the source file path
func (b *Builder) File(path string) *Builder {
	b.err.File = path
	return b
}

// Line sets the 1-based header line number
func (b *Builder) Line(n int) *Builder {
	b.err.Line = n
	return b
}

// Offset sets the byte offset in the source
func (b *Builder) Offset(off int64) *Builder {
	b.err.Offset = off
	return b
}

// Trace sets the trace name involved
func (b *Builder) Trace(name string) *Builder {
	b.err.Trace = name
	return b
}

// Bytes sets expected and actual byte counts
func (b *Builder) Bytes(want, got int64) *Builder {
	b.err.Want = want
	b.err.Got = got
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

// Parse creates a header parse error at a given 1-based line
func Parse(path string, line int, detail string, args ...any) *Error {
	return New(PhaseHeader, KindParse).File(path).Line(line).Detail(detail, args...).Build()
}

// ParseAt creates a parse error at a byte offset
func ParseAt(phase Phase, path string, offset int64, detail string, args ...any) *Error {
	return New(phase, KindParse).File(path).Offset(offset).Detail(detail, args...).Build()
}

// Truncated creates a truncated-body error reporting expected vs actual bytes
func Truncated(path string, offset, want, got int64) *Error {
	return New(PhaseBody, KindTruncated).
		File(path).
		Offset(offset).
		Bytes(want, got).
		Detail("body ends before declared point count").
		Build()
}

// UnsupportedDialect creates an error for a layout that cannot be safely decoded
func UnsupportedDialect(path, hint string) *Error {
	return New(PhaseDialect, KindUnsupported).
		File(path).
		Detail("cannot decode binary body: %s", hint).
		Build()
}

// TraceNotFound creates a lookup error for an undeclared trace name
func TraceNotFound(path, name string) *Error {
	return New(PhaseAccess, KindTraceNotFound).
		File(path).
		Trace(name).
		Detail("no variable with this name is declared in the header").
		Build()
}

// Validation creates a writer validation error
func Validation(detail string, args ...any) *Error {
	return New(PhaseValidate, KindValidation).Detail(detail, args...).Build()
}

// Encoding creates an error for header bytes that are not valid text
func Encoding(path string, attempted []string, cause error) *Error {
	return New(PhaseHeader, KindEncoding).
		File(path).
		Detail("header is not valid text (tried %s)", strings.Join(attempted, ", ")).
		Cause(cause).
		Build()
}

// WrapIO wraps an I/O failure with file context, keeping it
// distinguishable from parse failures
func WrapIO(phase Phase, path string, cause error) *Error {
	return New(phase, KindIO).
		File(path).
		Detail("i/o failure").
		Cause(cause).
		Build()
}

// Wrap wraps an existing error with phase and kind context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return New(phase, kind).Detail(detail).Cause(cause).Build()
}
