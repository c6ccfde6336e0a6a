package bin

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Reader walks a byte slice with position tracking and raw-file specific
// read methods. All fixed-width reads are little-endian; every dialect the
// library understands stores IEEE-754 values that way.
type Reader struct {
	data []byte
	pos  int64
}

// NewReader creates a new Reader over the given bytes.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte position.
func (r *Reader) Position() int64 {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int64 {
	return int64(len(r.data)) - r.pos
}

// Seek moves the position to pos.
func (r *Reader) Seek(pos int64) error {
	if pos < 0 || pos > int64(len(r.data)) {
		return fmt.Errorf("seek to %d outside buffer of %d bytes", pos, len(r.data))
	}
	r.pos = pos
	return nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) error {
	return r.Seek(r.pos + n)
}

// ReadBytes reads exactly n bytes without copying.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if r.Remaining() < int64(n) {
		return nil, r.wrapError(io.ErrUnexpectedEOF)
	}
	b := r.data[r.pos : r.pos+int64(n)]
	r.pos += int64(n)
	return b, nil
}

// ReadF32 reads a little-endian IEEE-754 single-precision value.
func (r *Reader) ReadF32() (float32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// ReadF64 reads a little-endian IEEE-754 double-precision value.
func (r *Reader) ReadF64() (float64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadC128 reads an adjacent (real, imaginary) pair of doubles.
func (r *Reader) ReadC128() (complex128, error) {
	b, err := r.ReadBytes(16)
	if err != nil {
		return 0, err
	}
	re := math.Float64frombits(binary.LittleEndian.Uint64(b))
	im := math.Float64frombits(binary.LittleEndian.Uint64(b[8:]))
	return complex(re, im), nil
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at position %d: %w", r.pos, err)
}

// Standalone decoders for already-sliced windows. Callers guarantee length.

// F32 decodes a single-precision value from the first 4 bytes of b.
func F32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// F64 decodes a double-precision value from the first 8 bytes of b.
func F64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// C128 decodes a (real, imaginary) double pair from the first 16 bytes of b.
func C128(b []byte) complex128 {
	return complex(F64(b), F64(b[8:]))
}
