// Package codec reads and writes complete raw waveform containers.
//
// Decoding is a pure pipeline over an in-memory byte slice:
//
//	read ─→ header.Parse ─→ dialect.Resolve ─→ body decode ─→ assemble ─→ steps
//
// The body decoder scatters row-major records into per-variable buffers, or
// copies column-major runs when the file was written with fastaccess; both
// layouts yield numerically identical buffers. ASCII "Values:" bodies go
// through a text tokenizer instead. Element kinds follow the resolved
// dialect rules: float32 data stays float32 in the model, complex pairs
// become []complex128, the axis is always []float64.
//
// Probe parses the header and resolves layout rules without touching the
// body; the lazy and stream packages build on it. Encode is the inverse of
// Decode: it re-serializes a File under any dialect's layout rules, so
// decode(encode(f)) returns f bit-exactly when the trace kinds match the
// dialect widths.
//
// Fully decoding a multi-gigabyte file needs the whole body in memory twice
// (raw bytes plus buffers); use lazy or stream for files of that size.
package codec
