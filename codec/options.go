package codec

import (
	"github.com/spicekit/spiceraw/dialect"
	"github.com/spicekit/spiceraw/errors"
	"github.com/spicekit/spiceraw/header"
)

// Options controls a decode. The zero value decodes everything with dialect
// auto-detection.
type Options struct {
	// Traces limits body decoding to the named dependent variables,
	// compared case-insensitively. The axis always decodes. A name that is
	// not declared in the header fails the decode with a trace_not_found
	// error rather than being silently dropped. Empty means every variable.
	Traces []string

	// HeaderOnly skips the body: the returned File carries full metadata
	// and zero-length series.
	HeaderOnly bool

	// Dialect forces layout rules instead of detecting them from header
	// hints. dialect.Auto (the zero value) detects; dialect.Generic forces
	// the text fallback.
	Dialect dialect.Dialect
}

// EncodeOptions controls how a File is serialized.
type EncodeOptions struct {
	// Dialect selects the layout convention. Auto uses the File's source
	// dialect when it has one and LTspice otherwise.
	Dialect dialect.Dialect

	// FastAccess lays the binary body out column-major. Only meaningful
	// for binary bodies.
	FastAccess bool

	// ASCII emits a text body ("Values:") instead of a binary one.
	ASCII bool

	// Encoding overrides the header text encoding. EncAuto follows the
	// dialect convention: UTF-16-LE for LTspice, UTF-8 otherwise.
	Encoding header.Encoding
}

func (o *Options) validate() error {
	if o.Dialect > dialect.QSpice {
		return errors.Validation("unknown dialect %d", o.Dialect)
	}
	return nil
}

func (o *EncodeOptions) validate() error {
	if o.Dialect > dialect.QSpice {
		return errors.Validation("unknown dialect %d", o.Dialect)
	}
	if o.Encoding > header.EncWindows1252 {
		return errors.Validation("unknown encoding %d", o.Encoding)
	}
	return nil
}
