// Package codec serializes cached runs for spill storage. A Snapshot is
// the wire form of one spiceraw.Samples buffer; codecs must round-trip it
// exactly, so a spill tier can hand back precisely what was evicted.
package codec

import (
	"github.com/spicekit/spiceraw"
	"github.com/spicekit/spiceraw/errors"
)

// Snapshot is the serializable form of one cached run. Exactly one buffer
// group is populated, matching Kind: F32 or F64 for real runs, the Re and
// Im planes for complex ones (neither msgpack nor cbor has a native
// complex type).
type Snapshot struct {
	Kind uint8     `msgpack:"k" cbor:"k"`
	F32  []float32 `msgpack:"f,omitempty" cbor:"f,omitempty"`
	F64  []float64 `msgpack:"d,omitempty" cbor:"d,omitempty"`
	Re   []float64 `msgpack:"r,omitempty" cbor:"r,omitempty"`
	Im   []float64 `msgpack:"i,omitempty" cbor:"i,omitempty"`
}

// Codec encodes and decodes snapshots for a byte store.
type Codec interface {
	Encode(Snapshot) ([]byte, error)
	Decode([]byte) (Snapshot, error)
}

// FromSamples converts a decoded run to its wire form.
func FromSamples(s spiceraw.Samples) Snapshot {
	snap := Snapshot{Kind: uint8(s.Kind())}
	switch s.Kind() {
	case spiceraw.KindFloat32:
		snap.F32 = s.Raw32()
	case spiceraw.KindComplex128:
		pairs := s.RawComplex()
		snap.Re = make([]float64, len(pairs))
		snap.Im = make([]float64, len(pairs))
		for i, v := range pairs {
			snap.Re[i] = real(v)
			snap.Im[i] = imag(v)
		}
	default:
		snap.F64 = s.Raw64()
	}
	return snap
}

// Samples rebuilds the in-memory run. Malformed snapshots fail rather than
// producing a silently wrong buffer.
func (s Snapshot) Samples() (spiceraw.Samples, error) {
	switch spiceraw.Kind(s.Kind) {
	case spiceraw.KindFloat32:
		return spiceraw.SamplesF32(s.F32), nil
	case spiceraw.KindFloat64:
		return spiceraw.SamplesF64(s.F64), nil
	case spiceraw.KindComplex128:
		if len(s.Re) != len(s.Im) {
			return spiceraw.Samples{}, errors.New(errors.PhaseCache, errors.KindEncoding).
				Detail("snapshot has %d real values but %d imaginary", len(s.Re), len(s.Im)).
				Build()
		}
		pairs := make([]complex128, len(s.Re))
		for i := range pairs {
			pairs[i] = complex(s.Re[i], s.Im[i])
		}
		return spiceraw.SamplesC128(pairs), nil
	default:
		return spiceraw.Samples{}, errors.New(errors.PhaseCache, errors.KindEncoding).
			Detail("snapshot kind %d is unknown", s.Kind).
			Build()
	}
}
