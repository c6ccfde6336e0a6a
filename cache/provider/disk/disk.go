// Package disk persists spill entries as zstd-compressed files, one
// file per key. It survives process restarts, so snapshots evicted in
// one session can be served in the next without re-decoding the raw
// file.
package disk

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DataDog/zstd"
	"github.com/cespare/xxhash/v2"
)

// Payload layout: magic, format version, uvarint key length, key bytes,
// zstd-compressed value. The embedded key guards against filename hash
// collisions: a mismatch reads as a miss.
const (
	magic   = "rs"
	version = 1
)

type Config struct {
	Dir          string // required
	Level        int    // zstd level; 0 = zstd.DefaultCompression
	SweepOnClose bool   // remove every entry when the provider closes
}

type Provider struct {
	dir   string
	level int
	sweep bool
}

func New(cfg Config) (*Provider, error) {
	if cfg.Dir == "" {
		return nil, errors.New("disk: Dir is required")
	}
	if cfg.Level == 0 {
		cfg.Level = zstd.DefaultCompression
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &Provider{dir: cfg.Dir, level: cfg.Level, sweep: cfg.SweepOnClose}, nil
}

func (p *Provider) path(key string) string {
	return filepath.Join(p.dir, fmt.Sprintf("%016x.zst", xxhash.Sum64String(key)))
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := p.path(key)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	stored, body, err := split(raw)
	if err != nil {
		// torn or foreign file; drop it and report a miss
		os.Remove(path)
		return nil, false, nil
	}
	if stored != key {
		return nil, false, nil
	}
	value, err := zstd.Decompress(nil, body)
	if err != nil {
		os.Remove(path)
		return nil, false, nil
	}
	return value, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64) (bool, error) {
	body, err := zstd.CompressLevel(nil, value, p.level)
	if err != nil {
		return false, err
	}
	buf := make([]byte, 0, len(magic)+1+binary.MaxVarintLen64+len(key)+len(body))
	buf = append(buf, magic...)
	buf = append(buf, version)
	buf = binary.AppendUvarint(buf, uint64(len(key)))
	buf = append(buf, key...)
	buf = append(buf, body...)

	f, err := os.CreateTemp(p.dir, "put-*.tmp")
	if err != nil {
		return false, err
	}
	_, werr := f.Write(buf)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(f.Name(), p.path(key))
	}
	if werr != nil {
		os.Remove(f.Name())
		return false, werr
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	err := os.Remove(p.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (p *Provider) Close(_ context.Context) error {
	if !p.sweep {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(p.dir, "*.zst"))
	if err != nil {
		return err
	}
	var first error
	for _, m := range matches {
		if err := os.Remove(m); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func split(raw []byte) (key string, body []byte, err error) {
	if len(raw) < len(magic)+1 || string(raw[:len(magic)]) != magic || raw[len(magic)] != version {
		return "", nil, errors.New("disk: not a spill entry")
	}
	rest := raw[len(magic)+1:]
	klen, n := binary.Uvarint(rest)
	if n <= 0 || uint64(len(rest)-n) < klen {
		return "", nil, errors.New("disk: truncated spill entry")
	}
	rest = rest[n:]
	return string(rest[:klen]), rest[klen:], nil
}
