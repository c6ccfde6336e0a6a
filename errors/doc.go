// Package errors provides structured error types for the spiceraw library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: source file path, byte
// offset or header line number, trace name, and cause chain. Every error
// surfaced to a caller names the offending file and the specific field or
// byte range involved.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseHeader, errors.KindParse).
//		File("/sim/out.raw").
//		Line(4).
//		Detail("mandatory field %q is missing", "No. Points").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Truncated(path, bodyOff, want, got)
//	err := errors.TraceNotFound(path, "V(out)")
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on (Phase, Kind), so callers can test for a category:
//
//	errors.Is(err, &errors.Error{Phase: errors.PhaseBody, Kind: errors.KindTruncated})
package errors
