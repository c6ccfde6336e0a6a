package dialect

import (
	"path/filepath"
	"strings"

	"github.com/spicekit/spiceraw/header"
)

// Resolve picks layout rules for a parsed header. pathHint is the source
// file name when one exists; the extension is a hint only and an empty hint
// must still resolve (in-memory buffers carry no path). Resolution order:
// the Command value names the producer, then a ".qraw" extension implies
// QSpice, then a UTF-16 header implies LTspice (no other producer writes
// one). Anything else gets generic fallback rules.
func Resolve(h *header.Header, pathHint string) Rules {
	return For(detect(h, pathHint), h)
}

// For builds the rules a given dialect implies for this header. Used by
// Resolve and by decode options that force a dialect explicitly. Auto and
// Generic both produce fallback rules; callers wanting detection go through
// Resolve.
func For(d Dialect, h *header.Header) Rules {
	if d == Auto {
		d = Generic
	}
	r := Rules{
		Dialect:   d,
		ASCII:     h.BodyMarker == header.MarkerValues,
		Complex:   h.Flags.Complex,
		AxisIndex: axisIndex(h),
		Order:     LittleEndian,
	}

	switch d {
	case LTspice:
		r.AxisWidth, r.DataWidth = 8, 4
		if h.Flags.Double {
			r.DataWidth = 8
		}
		r.HeaderEncoding = header.EncUTF16LE
	case NGSpice, QSpice:
		r.AxisWidth, r.DataWidth = 8, 8
		r.HeaderEncoding = header.EncUTF8
	default:
		r.ASCII = true
		r.AxisWidth, r.DataWidth = 8, 8
		r.Fallback = true
		r.HeaderEncoding = header.EncUTF8
	}

	if r.Complex {
		r.AxisWidth, r.DataWidth = 16, 16
	}
	if !r.ASCII && h.Flags.FastAccess {
		r.FastAccess = true
	}
	return r
}

func detect(h *header.Header, pathHint string) Dialect {
	cmd := strings.ToLower(h.Command)
	switch {
	case strings.Contains(cmd, "ltspice"):
		return LTspice
	case strings.Contains(cmd, "ngspice"):
		return NGSpice
	case strings.Contains(cmd, "qspice"):
		return QSpice
	}
	if strings.EqualFold(filepath.Ext(pathHint), ".qraw") {
		return QSpice
	}
	if h.Encoding == header.EncUTF16LE {
		return LTspice
	}
	return Generic
}

// axisIndex returns the variable index acting as the independent axis.
// Variable 0 is the axis by container convention; pointwise plots have no
// axis at all and every variable is data.
func axisIndex(h *header.Header) int {
	if len(h.Vars) == 0 {
		return -1
	}
	plot := strings.ToLower(h.Plotname)
	if strings.Contains(plot, "operating point") || strings.Contains(plot, "transfer function") {
		return -1
	}
	return 0
}
