package cache

import (
	"github.com/spicekit/spiceraw/cache/codec"
	"github.com/spicekit/spiceraw/cache/provider"
	"github.com/spicekit/spiceraw/errors"
)

// DefaultMaxBytes bounds the hot tier when Options.MaxBytes is zero.
const DefaultMaxBytes = 64 << 20

// Options configure a Cache.
type Options struct {
	// MaxBytes bounds the hot tier. Entries are costed by sample payload
	// plus key overhead. 0 means DefaultMaxBytes.
	MaxBytes int64

	// HashContent folds a hash of the file's leading bytes into the
	// fingerprint, catching rewrites that preserve size and mtime.
	HashContent bool

	// Spill receives entries evicted from the hot tier. Optional.
	Spill provider.Provider

	// Codec serializes snapshots for the spill tier. Ignored when Spill
	// is nil. Defaults to msgpack.
	Codec codec.Codec
}

func (o *Options) validate() error {
	if o.MaxBytes < 0 {
		return errors.Validation("cache budget %d is negative", o.MaxBytes)
	}
	if o.MaxBytes == 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.Spill != nil && o.Codec == nil {
		o.Codec = codec.Msgpack{}
	}
	return nil
}
