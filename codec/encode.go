package codec

import (
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/spicekit/spiceraw"
	"github.com/spicekit/spiceraw/dialect"
	"github.com/spicekit/spiceraw/errors"
	"github.com/spicekit/spiceraw/header"
	"github.com/spicekit/spiceraw/internal/bin"
)

// Encode serializes f as a raw container under the selected dialect's
// layout rules. Counts and flags that describe the body (variables, points,
// complex, stepped, fastaccess) are recomputed from the model, never
// trusted from the File's provenance; extra header attributes and unknown
// flag tokens pass through verbatim.
//
// Element widths follow the dialect: float64 data narrows to float32 where
// the dialect stores 32-bit data, so callers wanting bit-exact round-trips
// keep float32 traces float32.
func Encode(f *spiceraw.File, opts *EncodeOptions) ([]byte, error) {
	if f == nil {
		return nil, errors.Validation("cannot encode a nil file")
	}
	if opts == nil {
		opts = &EncodeOptions{}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	d := opts.Dialect
	if d == dialect.Auto {
		if d = f.Dialect(); d == dialect.Auto {
			d = dialect.LTspice
		}
	}

	h, rules, err := buildHeader(f, d, opts)
	if err != nil {
		return nil, err
	}
	enc := chooseEncoding(f, d, rules, opts)

	out, err := h.Append(nil, enc)
	if err != nil {
		return nil, err
	}
	if rules.ASCII {
		body, err := header.EncodeText(appendTextBody(nil, f, rules), enc)
		if err != nil {
			return nil, err
		}
		out = append(out, body...)
	} else {
		out = appendBinaryBody(out, f, h, rules)
	}

	Logger().Debug("encoded",
		zap.String("rules", rules.String()),
		zap.String("encoding", enc.String()),
		zap.Int("variables", h.NVars),
		zap.Int("points", h.NPoints),
		zap.Int("bytes", len(out)))
	return out, nil
}

// EncodeFile encodes f and writes the container to path.
func EncodeFile(f *spiceraw.File, path string, opts *EncodeOptions) error {
	data, err := Encode(f, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapIO(errors.PhaseEncode, path, err)
	}
	return nil
}

func buildHeader(f *spiceraw.File, d dialect.Dialect, opts *EncodeOptions) (*header.Header, dialect.Rules, error) {
	m := f.Meta()
	hasComplex, allComplex := complexShape(f)
	if hasComplex && !allComplex {
		return nil, dialect.Rules{}, errors.Validation(
			"cannot encode mixed real and complex traces into one container")
	}

	flags := m.Flags
	flags.Complex = hasComplex
	flags.Stepped = f.StepCount() > 1
	flags.FastAccess = opts.FastAccess && !opts.ASCII
	if hasComplex {
		flags.Double = false
	}

	command := m.Command
	if command == "" {
		command = defaultCommand(d)
	}

	h := &header.Header{
		Title:      m.Title,
		Date:       m.Date,
		Plotname:   m.Plotname,
		Command:    command,
		Flags:      flags,
		NPoints:    f.Points(),
		Extra:      m.Extra,
		BodyMarker: header.MarkerBinary,
	}
	if opts.ASCII {
		h.BodyMarker = header.MarkerValues
	}
	h.Vars = buildVars(f)
	h.NVars = len(h.Vars)

	rules := dialect.For(d, h)
	if rules.ASCII {
		// The generic fallback has no binary layout; the emitted header
		// must say so too.
		h.BodyMarker = header.MarkerValues
		h.Flags.FastAccess = false
	}

	// The axis shape must agree with the plot name, or the container would
	// decode differently than it was assembled: variable 0 is the axis
	// exactly when the plot name is not pointwise.
	switch {
	case f.Axis() == nil && rules.AxisIndex >= 0:
		return nil, rules, errors.Validation(
			"plotname %q implies an independent axis but the file has none", m.Plotname)
	case f.Axis() != nil && rules.AxisIndex < 0:
		return nil, rules, errors.Validation(
			"plotname %q names a pointwise analysis but the file has an axis", m.Plotname)
	}
	return h, rules, nil
}

// defaultCommand stamps a producer hint when the model carries none, so an
// emitted binary container redetects its own dialect when read back.
func defaultCommand(d dialect.Dialect) string {
	switch d {
	case dialect.LTspice:
		return "Linear Technology Corporation LTspice XVII"
	case dialect.NGSpice:
		return "ngspice-36"
	case dialect.QSpice:
		return "QSPICE"
	default:
		return ""
	}
}

// chooseEncoding picks the header text encoding: an explicit option wins,
// then the source encoding when re-encoding under the source dialect, then
// the dialect convention.
func chooseEncoding(f *spiceraw.File, d dialect.Dialect, rules dialect.Rules, opts *EncodeOptions) header.Encoding {
	if opts.Encoding != header.EncAuto {
		return opts.Encoding
	}
	if src := f.Meta().Encoding; src != header.EncAuto && f.Dialect() == d {
		return src
	}
	return rules.HeaderEncoding
}

func complexShape(f *spiceraw.File) (hasComplex, allComplex bool) {
	traces := f.Traces()
	if len(traces) == 0 {
		return false, false
	}
	allComplex = true
	for _, t := range traces {
		if t.Kind().IsComplex() {
			hasComplex = true
		} else {
			allComplex = false
		}
	}
	return hasComplex, allComplex
}

func buildVars(f *spiceraw.File) []header.Var {
	vars := make([]header.Var, 0, len(f.Traces())+1)
	if ax := f.Axis(); ax != nil {
		vars = append(vars, header.Var{Index: 0, Name: ax.Name(), Type: ax.Type()})
	}
	for _, t := range f.Traces() {
		vars = append(vars, header.Var{Index: len(vars), Name: t.Name(), Type: t.Type()})
	}
	return vars
}

// series is one output column in variable order: the axis first when the
// plot has one, then traces in model order.
type series struct {
	axis  *spiceraw.Axis
	trace *spiceraw.Trace
}

func seriesOrder(f *spiceraw.File) []series {
	cols := make([]series, 0, len(f.Traces())+1)
	if ax := f.Axis(); ax != nil {
		cols = append(cols, series{axis: ax})
	}
	for _, t := range f.Traces() {
		cols = append(cols, series{trace: t})
	}
	return cols
}

func elemF64(s series, p int) float64 {
	if s.axis != nil {
		return s.axis.Raw()[p]
	}
	if s.trace.Kind() == spiceraw.KindFloat32 {
		return float64(s.trace.Raw32()[p])
	}
	return s.trace.Raw64()[p]
}

// elemC128 returns the complex element; a real axis in a complex plot is
// stored as a pair with zero imaginary part.
func elemC128(s series, p int) complex128 {
	if s.axis != nil {
		return complex(s.axis.Raw()[p], 0)
	}
	return s.trace.RawComplex()[p]
}

func appendBinaryBody(dst []byte, f *spiceraw.File, h *header.Header, rules dialect.Rules) []byte {
	w := bin.NewWriter()
	w.Grow(int(rules.BodySize(h.NVars, h.NPoints)))
	cols := seriesOrder(f)
	if rules.FastAccess {
		for i := range cols {
			for p := 0; p < h.NPoints; p++ {
				writeElement(w, rules, cols, i, p)
			}
		}
	} else {
		for p := 0; p < h.NPoints; p++ {
			for i := range cols {
				writeElement(w, rules, cols, i, p)
			}
		}
	}
	return append(dst, w.Bytes()...)
}

func writeElement(w *bin.Writer, rules dialect.Rules, cols []series, i, p int) {
	if rules.Complex {
		w.WriteC128(elemC128(cols[i], p))
		return
	}
	v := elemF64(cols[i], p)
	if rules.VarWidth(i) == 4 {
		w.WriteF32(float32(v))
	} else {
		w.WriteF64(v)
	}
}

// appendTextBody prints one index-prefixed record per point. Values use
// shortest-exact scientific notation at the trace's own precision, so text
// round-trips are value-exact; complex pairs print as "re,im".
func appendTextBody(dst []byte, f *spiceraw.File, rules dialect.Rules) []byte {
	cols := seriesOrder(f)
	n := f.Points()
	for p := 0; p < n; p++ {
		dst = strconv.AppendInt(dst, int64(p), 10)
		for _, s := range cols {
			dst = append(dst, '\t')
			if rules.Complex {
				v := elemC128(s, p)
				dst = strconv.AppendFloat(dst, real(v), 'e', -1, 64)
				dst = append(dst, ',')
				dst = strconv.AppendFloat(dst, imag(v), 'e', -1, 64)
				continue
			}
			bits := 64
			if s.trace != nil && s.trace.Kind() == spiceraw.KindFloat32 {
				bits = 32
			}
			dst = strconv.AppendFloat(dst, elemF64(s, p), 'e', -1, bits)
		}
		dst = append(dst, '\n')
	}
	return dst
}
