// Package stream reads raw waveform containers as a forward-only sequence
// of bounded chunks, so files larger than memory can be processed without
// ever holding a full column.
//
// A Reader probes the header, resolves the layout and then pulls records in
// order: binary bodies through positioned reads, text bodies through an
// incremental tokenizer over the decoded byte stream. Chunk size comes from
// Config, either as an explicit record count or as a memory budget rounded
// down to whole records. A record is never split across chunks, and a chunk
// never crosses a step boundary, so Chunk.Step is well-defined.
//
// Readers are forward-only and finite: Next returns io.EOF once the
// declared point count is exhausted, and there is no rewind. Open a new
// Reader to read again.
package stream
