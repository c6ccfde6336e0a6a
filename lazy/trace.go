package lazy

import (
	"math"
	"strings"

	"github.com/spicekit/spiceraw"
	"github.com/spicekit/spiceraw/dialect"
	"github.com/spicekit/spiceraw/errors"
	"github.com/spicekit/spiceraw/header"
	"github.com/spicekit/spiceraw/internal/bin"
)

// Trace is one variable of a lazily opened container. It holds the parent
// File and the variable's header entry, never body bytes.
type Trace struct {
	file   *File
	v      header.Var
	isAxis bool
}

func (t *Trace) Name() string { return t.v.Name }

func (t *Trace) Type() string { return t.v.Type }

func (t *Trace) Len() int { return t.file.Points() }

// Kind reports the element kind this trace's windows decode to.
func (t *Trace) Kind() spiceraw.Kind {
	rules := t.file.info.Rules
	switch {
	case rules.Complex:
		return spiceraw.KindComplex128
	case rules.VarWidth(t.v.Index) == 4:
		return spiceraw.KindFloat32
	default:
		return spiceraw.KindFloat64
	}
}

// Full reads the whole column.
func (t *Trace) Full() (spiceraw.Samples, error) {
	return t.Window(0, t.file.Points())
}

// Window reads points [start, end) with a single ReadAt. Row-major
// containers read the whole records covering the window; column-major
// ones read exactly the window bytes.
func (t *Trace) Window(start, end int) (spiceraw.Samples, error) {
	n := t.file.Points()
	if start < 0 || end > n || start > end {
		return spiceraw.Samples{}, errors.New(errors.PhaseAccess, errors.KindValidation).
			File(t.file.info.Path).
			Trace(t.v.Name).
			Detail("window [%d, %d) out of range (file has %d points)", start, end, n).
			Build()
	}
	if start == end {
		return emptySamples(t.Kind()), nil
	}

	h := t.file.info.Header
	rules := t.file.info.Rules
	width := rules.VarWidth(t.v.Index)
	count := end - start

	if rules.FastAccess {
		off := rules.ColumnOffset(h.BodyOffset, n, t.v.Index) + int64(start)*int64(width)
		buf := make([]byte, count*width)
		if err := t.file.readAt(buf, off); err != nil {
			return spiceraw.Samples{}, err
		}
		return scan(buf, width, rules.Complex, count, width), nil
	}

	rec := rules.RecordSize(h.NVars)
	buf := make([]byte, count*rec)
	if err := t.file.readAt(buf, rules.PointOffset(h.BodyOffset, h.NVars, start, 0)); err != nil {
		return spiceraw.Samples{}, err
	}
	return scan(buf[rules.VarOffsetInRecord(t.v.Index):], width, rules.Complex, count, rec), nil
}

// StepSamples reads one step's run of this trace, kind-preserved.
func (t *Trace) StepSamples(step int) (spiceraw.Samples, error) {
	start, end, err := t.file.stepRange(step)
	if err != nil {
		return spiceraw.Samples{}, err
	}
	return t.Window(start, end)
}

// Wave returns one step's values as float64, promoting float32 and taking
// the real half of a complex plot's stored axis. LTspice time axes are
// sign-normalized: compression marks points with a negative time and the
// wave view hides that. Complex data traces refuse; use WaveComplex.
func (t *Trace) Wave(step int) ([]float64, error) {
	start, end, err := t.file.stepRange(step)
	if err != nil {
		return nil, err
	}
	vals, err := t.float64s(start, end)
	if err != nil {
		return nil, err
	}
	if t.signCompressed() {
		for i, v := range vals {
			vals[i] = math.Abs(v)
		}
	}
	return vals, nil
}

// WaveComplex returns one step's values of a complex trace.
func (t *Trace) WaveComplex(step int) ([]complex128, error) {
	if !t.Kind().IsComplex() {
		return nil, errors.Validation("trace %q is %s, not complex", t.v.Name, t.Kind())
	}
	s, err := t.StepSamples(step)
	if err != nil {
		return nil, err
	}
	return s.RawComplex(), nil
}

// float64s reads [start, end) as float64. The axis of a complex plot takes
// the real half of its stored pair; complex data traces refuse, as
// collapsing pairs would silently lose data.
func (t *Trace) float64s(start, end int) ([]float64, error) {
	s, err := t.Window(start, end)
	if err != nil {
		return nil, err
	}
	if s.Kind() == spiceraw.KindComplex128 {
		if !t.isAxis {
			return nil, errors.Validation("trace %q is complex; use WaveComplex", t.v.Name)
		}
		pairs := s.RawComplex()
		out := make([]float64, len(pairs))
		for i, v := range pairs {
			out[i] = real(v)
		}
		return out, nil
	}
	return s.Float64s()
}

// signCompressed mirrors the eager Axis view: only LTspice time axes carry
// compression signs.
func (t *Trace) signCompressed() bool {
	return t.isAxis &&
		t.file.info.Rules.Dialect == dialect.LTspice &&
		strings.EqualFold(t.v.Type, "time")
}

func emptySamples(k spiceraw.Kind) spiceraw.Samples {
	switch k {
	case spiceraw.KindComplex128:
		return spiceraw.SamplesC128(nil)
	case spiceraw.KindFloat32:
		return spiceraw.SamplesF32(nil)
	default:
		return spiceraw.SamplesF64(nil)
	}
}

// scan decodes count elements of the given width from buf, one every
// stride bytes.
func scan(buf []byte, width int, isComplex bool, count, stride int) spiceraw.Samples {
	switch {
	case isComplex:
		out := make([]complex128, count)
		for i := 0; i < count; i++ {
			out[i] = bin.C128(buf[i*stride:])
		}
		return spiceraw.SamplesC128(out)
	case width == 4:
		out := make([]float32, count)
		for i := 0; i < count; i++ {
			out[i] = bin.F32(buf[i*stride:])
		}
		return spiceraw.SamplesF32(out)
	default:
		out := make([]float64, count)
		for i := 0; i < count; i++ {
			out[i] = bin.F64(buf[i*stride:])
		}
		return spiceraw.SamplesF64(out)
	}
}
