// Package dialect selects the binary layout rules for a raw file from the
// vendor hints its header carries. Simulators share the header grammar but
// disagree on everything below it: LTspice stores a 64-bit axis over 32-bit
// data (64-bit under the "double" flag), NGSpice and QSpice store 64 bits
// everywhere, and complex plots store 16-byte (real, imaginary) pairs for
// every variable. The resolved Rules value fixes element widths, byte order
// and row- versus column-major layout once, so the body codecs branch on
// plain fields instead of re-inspecting header strings.
//
// Resolution never fails. An unrecognized producer yields generic text rules
// with Fallback set; attempting to decode a binary body under fallback rules
// is the decoder's cue to refuse with an unsupported-dialect error, which
// keeps header-only inspection working for files from unknown tools.
package dialect

import "github.com/spicekit/spiceraw/header"

// Dialect identifies the producing simulator family. The zero value Auto
// asks the resolver to detect the family from header hints; decoded files
// always carry a concrete family (Generic when nothing was recognized).
type Dialect uint8

const (
	Auto Dialect = iota
	Generic
	LTspice
	NGSpice
	QSpice
)

var dialectNames = [...]string{
	Auto:    "auto",
	Generic: "generic",
	LTspice: "ltspice",
	NGSpice: "ngspice",
	QSpice:  "qspice",
}

func (d Dialect) String() string {
	if int(d) < len(dialectNames) {
		return dialectNames[d]
	}
	return "unknown"
}

// FromName maps a lower-case dialect name back to its value. Used by CLI
// flags and decode options that force a dialect.
func FromName(name string) (Dialect, bool) {
	for d, n := range dialectNames {
		if n == name {
			return Dialect(d), true
		}
	}
	return Auto, false
}

// ByteOrder identifies the endianness of a binary body. Every dialect seen
// in the wild writes little-endian; the field keeps Rules data-driven
// instead of assumption-driven.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

// Rules fixes every layout decision the body codecs need for one file.
// A Rules value is resolved once per file and read-only afterwards.
type Rules struct {
	Dialect    Dialect
	ASCII      bool // text body ("Values:" marker)
	FastAccess bool // column-major binary layout, one contiguous run per variable
	Complex    bool // every element is a (real, imaginary) float64 pair

	// AxisIndex is the variable index holding the independent axis, or -1
	// for pointwise plots (operating point, transfer function) where every
	// variable is plain data.
	AxisIndex int

	AxisWidth int // bytes per axis element in a binary body
	DataWidth int // bytes per non-axis element in a binary body
	Order     ByteOrder

	// Polar is reserved for dialects that store complex pairs as
	// (magnitude, phase). None of the known producers do; decoders treat
	// pairs as rectangular.
	Polar bool

	// Fallback marks generic rules chosen because no producer was
	// recognized. Binary bodies are refused under fallback rules.
	Fallback bool

	// HeaderEncoding is the producer's conventional header encoding,
	// used as the default when writing.
	HeaderEncoding header.Encoding
}

// String returns the variant tag, e.g. "ltspice-binary-fastaccess".
func (r Rules) String() string {
	name := r.Dialect.String()
	switch {
	case r.ASCII:
		return name + "-ascii"
	case r.FastAccess:
		return name + "-binary-fastaccess"
	default:
		return name + "-binary"
	}
}

// VarWidth returns the element width in bytes of variable i.
func (r Rules) VarWidth(i int) int {
	if r.Complex {
		return 16
	}
	if i == r.AxisIndex {
		return r.AxisWidth
	}
	return r.DataWidth
}

// RecordSize returns the byte length of one row-major record, the sum of
// all variable widths.
func (r Rules) RecordSize(nVars int) int {
	if nVars <= 0 {
		return 0
	}
	if r.Complex {
		return nVars * 16
	}
	size := nVars * r.DataWidth
	if r.AxisIndex >= 0 && r.AxisIndex < nVars {
		size += r.AxisWidth - r.DataWidth
	}
	return size
}

// VarOffsetInRecord returns the byte offset of variable i inside one
// row-major record.
func (r Rules) VarOffsetInRecord(i int) int {
	off := 0
	for j := 0; j < i; j++ {
		off += r.VarWidth(j)
	}
	return off
}

// PointOffset returns the absolute byte offset of variable i's element at
// the given point in a row-major body starting at bodyOff.
func (r Rules) PointOffset(bodyOff int64, nVars, point, i int) int64 {
	return bodyOff + int64(point)*int64(r.RecordSize(nVars)) + int64(r.VarOffsetInRecord(i))
}

// ColumnOffset returns the absolute byte offset of variable i's column in a
// column-major body starting at bodyOff.
func (r Rules) ColumnOffset(bodyOff int64, nPoints, i int) int64 {
	off := bodyOff
	for j := 0; j < i; j++ {
		off += int64(r.VarWidth(j)) * int64(nPoints)
	}
	return off
}

// BodySize returns the byte length of a complete binary body. Row- and
// column-major layouts occupy the same number of bytes.
func (r Rules) BodySize(nVars, nPoints int) int64 {
	return int64(r.RecordSize(nVars)) * int64(nPoints)
}
