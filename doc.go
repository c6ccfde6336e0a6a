// Package spiceraw reads and writes the "raw" waveform containers produced
// by SPICE circuit simulators.
//
// A raw file is a short textual header followed by a numeric body holding
// one series per declared variable. Simulators agree on the header grammar
// and on little else: element widths, header text encoding, row- versus
// column-major body layout and complex-number storage all vary by producer.
// This library resolves those differences once per file into explicit
// layout rules and decodes against the rules, so the same call works for
// LTspice, NGSpice and QSpice output.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	spiceraw/            Root package with the File, Trace, Axis and Step model
//	├── header/          Textual header parsing, encodings, serialization
//	├── dialect/         Vendor layout rules: widths, byte order, column layout
//	├── codec/           Eager decode and encode of whole files
//	├── lazy/            Windowed trace access without full materialization
//	├── stream/          Bounded-memory forward iteration over records
//	├── cache/           Byte-budget LRU over per-step trace buffers
//	│   ├── codec/       Snapshot serialization for the spill tier
//	│   └── provider/    Spill tiers: bigcache, ristretto, zstd disk files
//	└── errors/          Structured error taxonomy
//
// # Quick Start
//
// Decode a file and read one trace:
//
//	f, err := codec.Decode("sweep.raw", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := f.Trace("V(out)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	wave, _ := out.Wave(0)          // first step, float64 view
//	time, _ := f.Axis().Wave(0)     // matching axis values
//
// For files larger than memory, lazy.Open reads single column windows on
// demand and stream.Open iterates fixed-size record chunks; both leave the
// bulk of the file on disk.
//
// # Numeric Kinds
//
// Decoded series keep their source precision:
//
//   - LTspice binary stores float32 data under a float64 axis, widening to
//     float64 when the header carries the "double" flag
//   - NGSpice and QSpice binary store float64 everywhere
//   - complex plots (AC analysis) store a (real, imaginary) float64 pair
//     per value; they decode into complex128, never into two real series
//
// float32 traces stay float32 until a caller asks for promotion through
// Wave or Float64s.
//
// # Stepped Sweeps
//
// A parameter sweep concatenates one sub-run per parameter set into a
// single file. The decoded Step partition records each sub-run's point
// range, the swept parameter values when a companion log names them, and
// whether the boundaries were scanned heuristically from axis restarts.
//
// # Thread Safety
//
// A decoded File is read-only and safe for concurrent readers. Decoding
// never shares state between files; the cache package is the one component
// with shared mutable state and serializes access internally. lazy.File
// windows may be requested concurrently on the same read-only handle.
package spiceraw
