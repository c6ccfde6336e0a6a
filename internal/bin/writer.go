package bin

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Writer provides buffered writing utilities for raw-file body encoding.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Grow reserves capacity for n additional bytes.
func (w *Writer) Grow(n int) {
	w.buf.Grow(n)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteString writes the raw bytes of s.
func (w *Writer) WriteString(s string) {
	w.buf.WriteString(s)
}

// WriteF32 writes a little-endian single-precision value.
func (w *Writer) WriteF32(v float32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	w.buf.Write(buf[:])
}

// WriteF64 writes a little-endian double-precision value.
func (w *Writer) WriteF64(v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	w.buf.Write(buf[:])
}

// WriteC128 writes an adjacent (real, imaginary) pair of doubles.
func (w *Writer) WriteC128(v complex128) {
	w.WriteF64(real(v))
	w.WriteF64(imag(v))
}
