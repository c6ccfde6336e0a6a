// Package cache keeps decoded trace snapshots in a bounded in-process
// LRU so repeated reads of the same waveform skip the raw file
// entirely.
//
// Entries are keyed by canonical file path, file fingerprint, trace
// name, and step index. Because the fingerprint is part of the key, a
// rewritten raw file silently orphans its old entries; there is no
// separate invalidation protocol to get wrong.
//
// When the hot tier overflows its byte budget, evicted entries are
// offered to an optional spill tier (see the provider subpackages:
// ristretto, bigcache, disk). Spilled snapshots are encoded with a
// pluggable codec (msgpack or CBOR) and re-admitted on the next hit.
package cache
