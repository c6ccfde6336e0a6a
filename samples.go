package spiceraw

import "github.com/spicekit/spiceraw/errors"

// Samples is a kind-tagged run of values cut from a single variable. It is
// what windowed readers hand out: the lazy and stream packages return
// Samples so that a float32 column crosses package boundaries without
// promotion, and the cache stores them as its value unit.
//
// Exactly one buffer is populated, matching Kind. A Samples value is cheap
// to copy; the buffers themselves are shared, treat them as read-only.
type Samples struct {
	kind Kind
	f32  []float32
	f64  []float64
	c128 []complex128
}

// SamplesF32 wraps a single-precision real run.
func SamplesF32(v []float32) Samples {
	return Samples{kind: KindFloat32, f32: v}
}

// SamplesF64 wraps a double-precision real run.
func SamplesF64(v []float64) Samples {
	return Samples{kind: KindFloat64, f64: v}
}

// SamplesC128 wraps a complex run.
func SamplesC128(v []complex128) Samples {
	return Samples{kind: KindComplex128, c128: v}
}

func (s Samples) Kind() Kind { return s.kind }

func (s Samples) Len() int {
	switch s.kind {
	case KindFloat32:
		return len(s.f32)
	case KindComplex128:
		return len(s.c128)
	default:
		return len(s.f64)
	}
}

// SizeBytes is the in-memory weight of the run, used for cache accounting.
func (s Samples) SizeBytes() int64 {
	return int64(s.Len()) * int64(s.kind.Width())
}

// Raw32, Raw64 and RawComplex expose the underlying buffer without copying.
// Each returns nil unless the run has that kind.
func (s Samples) Raw32() []float32 { return s.f32 }

func (s Samples) Raw64() []float64 { return s.f64 }

func (s Samples) RawComplex() []complex128 { return s.c128 }

// Float64s promotes the run to float64. Float64 runs come back without
// copying; complex runs refuse, as collapsing pairs to one real would
// silently lose data.
func (s Samples) Float64s() ([]float64, error) {
	switch s.kind {
	case KindFloat64:
		return s.f64, nil
	case KindFloat32:
		out := make([]float64, len(s.f32))
		for i, v := range s.f32 {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, errors.Validation("complex run has no real wave; read RawComplex")
	}
}

// Slice returns the sub-run [i:j), sharing the underlying buffer.
func (s Samples) Slice(i, j int) Samples {
	switch s.kind {
	case KindFloat32:
		return Samples{kind: s.kind, f32: s.f32[i:j]}
	case KindComplex128:
		return Samples{kind: s.kind, c128: s.c128[i:j]}
	default:
		return Samples{kind: s.kind, f64: s.f64[i:j]}
	}
}
