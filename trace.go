package spiceraw

import (
	"math/cmplx"

	"github.com/spicekit/spiceraw/errors"
)

// Trace is one dependent-variable series. The name preserves the header's
// casing but compares case-insensitively, the type string comes verbatim
// from the Variables block ("voltage", "device_current", ...), and exactly
// one numeric buffer is populated, matching Kind. Decoded traces are
// read-only; a float32 source stays float32 until a caller explicitly asks
// for promotion.
type Trace struct {
	name string
	typ  string
	kind Kind
	f32  []float32
	f64  []float64
	c128 []complex128
	file *File
}

// NewTraceF32 builds a single-precision real trace.
func NewTraceF32(name, typ string, data []float32) *Trace {
	return &Trace{name: name, typ: typ, kind: KindFloat32, f32: data}
}

// NewTraceF64 builds a double-precision real trace.
func NewTraceF64(name, typ string, data []float64) *Trace {
	return &Trace{name: name, typ: typ, kind: KindFloat64, f64: data}
}

// NewTraceC128 builds a complex trace.
func NewTraceC128(name, typ string, data []complex128) *Trace {
	return &Trace{name: name, typ: typ, kind: KindComplex128, c128: data}
}

func (t *Trace) Name() string { return t.name }

func (t *Trace) Type() string { return t.typ }

func (t *Trace) Kind() Kind { return t.kind }

func (t *Trace) Len() int {
	switch t.kind {
	case KindFloat32:
		return len(t.f32)
	case KindComplex128:
		return len(t.c128)
	default:
		return len(t.f64)
	}
}

// Raw32, Raw64 and RawComplex expose the owned buffer without copying or
// promotion. Each returns nil unless the trace has that kind. Treat the
// result as read-only.
func (t *Trace) Raw32() []float32 { return t.f32 }

func (t *Trace) Raw64() []float64 { return t.f64 }

func (t *Trace) RawComplex() []complex128 { return t.c128 }

// Wave returns one step's values as float64. This is the explicit
// promotion point for float32 traces; float64 traces return a window into
// the stored buffer without copying. Complex traces have no real wave, use
// WaveComplex or Magnitudes.
func (t *Trace) Wave(step int) ([]float64, error) {
	start, end, err := t.stepRange(step)
	if err != nil {
		return nil, err
	}
	switch t.kind {
	case KindFloat64:
		return t.f64[start:end], nil
	case KindFloat32:
		out := make([]float64, end-start)
		for i, v := range t.f32[start:end] {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, errors.Validation("trace %q is complex; use WaveComplex", t.name)
	}
}

// WaveComplex returns one step's values of a complex trace.
func (t *Trace) WaveComplex(step int) ([]complex128, error) {
	if t.kind != KindComplex128 {
		return nil, errors.Validation("trace %q is %s, not complex", t.name, t.kind)
	}
	start, end, err := t.stepRange(step)
	if err != nil {
		return nil, err
	}
	return t.c128[start:end], nil
}

// Float64s promotes the whole buffer to float64. Complex traces refuse:
// collapsing pairs to one real would silently lose data.
func (t *Trace) Float64s() ([]float64, error) {
	switch t.kind {
	case KindFloat64:
		return t.f64, nil
	case KindFloat32:
		out := make([]float64, len(t.f32))
		for i, v := range t.f32 {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, errors.Validation("trace %q is complex; use Complexes or Magnitudes", t.name)
	}
}

// Complexes returns the whole complex buffer.
func (t *Trace) Complexes() ([]complex128, error) {
	if t.kind != KindComplex128 {
		return nil, errors.Validation("trace %q is %s, not complex", t.name, t.kind)
	}
	return t.c128, nil
}

// Magnitudes returns |v| per point of a complex trace.
func (t *Trace) Magnitudes() ([]float64, error) {
	if t.kind != KindComplex128 {
		return nil, errors.Validation("trace %q is %s, not complex", t.name, t.kind)
	}
	out := make([]float64, len(t.c128))
	for i, v := range t.c128 {
		out[i] = cmplx.Abs(v)
	}
	return out, nil
}

// Phases returns the phase in radians per point of a complex trace.
func (t *Trace) Phases() ([]float64, error) {
	if t.kind != KindComplex128 {
		return nil, errors.Validation("trace %q is %s, not complex", t.name, t.kind)
	}
	out := make([]float64, len(t.c128))
	for i, v := range t.c128 {
		out[i] = cmplx.Phase(v)
	}
	return out, nil
}

func (t *Trace) stepRange(step int) (int, int, error) {
	if t.file != nil {
		return t.file.stepRange(step)
	}
	if step != 0 {
		return 0, 0, errors.Validation("step %d out of range for a detached trace", step)
	}
	return 0, t.Len(), nil
}
