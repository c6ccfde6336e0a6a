// Package provider defines the storage contract for cache spill tiers.
//
// A Provider stores opaque byte values under string keys. Implementations
// must treat both as-is: no transformation of keys, no interpretation of
// values. Whatever transcoding a backend needs internally (compression,
// framing) must be invisible to callers.
package provider

import "context"

// Provider is a byte-transparent key/value store used as a spill tier.
//
// Get returns (nil, false, nil) on a miss; an error only on backend
// failure. Set may decline an entry (ok == false) without error, for
// example when the value exceeds the backend's entry limit. Del on an
// absent key is not an error.
type Provider interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, cost int64) (ok bool, err error)
	Del(ctx context.Context, key string) error
	Close(ctx context.Context) error
}
