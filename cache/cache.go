package cache

import (
	"container/list"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spicekit/spiceraw"
	"github.com/spicekit/spiceraw/cache/codec"
	"github.com/spicekit/spiceraw/errors"
	"github.com/spicekit/spiceraw/lazy"
)

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Hits          uint64 // served from the hot tier
	Misses        uint64 // not found in the hot tier
	SpillHits     uint64 // misses recovered from the spill tier
	Evictions     uint64 // entries pushed out by the byte budget
	Invalidations uint64 // entries dropped because the file changed or Invalidate ran
	Entries       int    // current hot-tier entries
	Bytes         int64  // current hot-tier cost
	MaxBytes      int64  // configured budget
}

// Cache is a bounded LRU over decoded trace runs. It is safe for
// concurrent use.
type Cache struct {
	opts Options

	mu    sync.Mutex
	ll    *list.List // front = most recently used
	items map[string]*list.Element
	files map[string]*fileState
	bytes int64

	hits          uint64
	misses        uint64
	spillHits     uint64
	evictions     uint64
	invalidations uint64

	closed bool
}

// fileState tracks which entry keys belong to the currently fingerprinted
// version of one file, so Invalidate and fingerprint changes can free
// them promptly.
type fileState struct {
	fp   fingerprint
	keys map[string]struct{}
}

type entry struct {
	key     string
	file    string // canonical path, for per-file bookkeeping
	samples spiceraw.Samples
	cost    int64
}

// New builds a cache with the given options.
func New(opts Options) (*Cache, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Cache{
		opts:  opts,
		ll:    list.New(),
		items: make(map[string]*list.Element),
		files: make(map[string]*fileState),
	}, nil
}

// GetOrDecode returns the samples of one trace for one step, consulting
// the hot tier, then the spill tier, then the raw file itself. The axis
// is addressable by its declared name, same as any data trace.
func (c *Cache) GetOrDecode(ctx context.Context, path, trace string, step int) (spiceraw.Samples, error) {
	if err := ctx.Err(); err != nil {
		return spiceraw.Samples{}, errors.WrapIO(errors.PhaseCache, path, err)
	}
	cpath, err := canonical(path)
	if err != nil {
		return spiceraw.Samples{}, err
	}
	fp, err := fileFingerprint(cpath, c.opts.HashContent)
	if err != nil {
		return spiceraw.Samples{}, err
	}
	key := entryKey(cpath, fp, trace, step)

	s, ok, err := c.lookup(cpath, fp, key)
	if err != nil {
		return spiceraw.Samples{}, err
	}
	if ok {
		return s, nil
	}
	if s, ok := c.fromSpill(ctx, cpath, fp, key); ok {
		return s, nil
	}
	s, err = c.decode(cpath, trace, step)
	if err != nil {
		return spiceraw.Samples{}, err
	}
	c.admit(ctx, cpath, fp, key, s)
	return s, nil
}

// Invalidate drops every hot-tier entry for path. Spilled entries need
// no treatment: their keys embed the fingerprint of the version they
// came from, so they are only reachable while that version exists.
func (c *Cache) Invalidate(path string) error {
	cpath, err := canonical(path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.files[cpath]
	if !ok {
		return nil
	}
	for k := range st.keys {
		if c.removeLocked(k) {
			c.invalidations++
		}
	}
	delete(c.files, cpath)
	return nil
}

// Purge empties the hot tier without touching the spill tier.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.files = make(map[string]*fileState)
	c.bytes = 0
}

// Stats reports cumulative counters and the current hot-tier footprint.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:          c.hits,
		Misses:        c.misses,
		SpillHits:     c.spillHits,
		Evictions:     c.evictions,
		Invalidations: c.invalidations,
		Entries:       len(c.items),
		Bytes:         c.bytes,
		MaxBytes:      c.opts.MaxBytes,
	}
}

// Close empties the cache and closes the spill tier. The cache refuses
// further lookups afterwards.
func (c *Cache) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.ll.Init()
	c.items = nil
	c.files = nil
	c.bytes = 0
	c.mu.Unlock()
	if c.opts.Spill != nil {
		return c.opts.Spill.Close(ctx)
	}
	return nil
}

func (c *Cache) lookup(cpath string, fp fingerprint, key string) (spiceraw.Samples, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return spiceraw.Samples{}, false, errors.New(errors.PhaseCache, errors.KindIO).
			Detail("cache is closed").Build()
	}
	c.syncFileLocked(cpath, fp)
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		c.hits++
		return el.Value.(*entry).samples, true, nil
	}
	c.misses++
	return spiceraw.Samples{}, false, nil
}

// syncFileLocked reconciles the tracked fingerprint for cpath. When the
// file changed, every entry of the previous version is dropped: the new
// fingerprint already makes them unreachable, this just frees the
// memory promptly.
func (c *Cache) syncFileLocked(cpath string, fp fingerprint) {
	st, ok := c.files[cpath]
	if !ok {
		c.files[cpath] = &fileState{fp: fp, keys: make(map[string]struct{})}
		return
	}
	if st.fp == fp {
		return
	}
	Logger().Debug("file changed, dropping cached runs",
		zap.String("path", cpath), zap.Int("entries", len(st.keys)))
	for k := range st.keys {
		if c.removeLocked(k) {
			c.invalidations++
		}
	}
	st.fp = fp
	st.keys = make(map[string]struct{})
}

// fromSpill tries the spill tier after a hot-tier miss. Recovered runs
// are re-admitted; undecodable entries are deleted so they cannot
// shadow a fresh decode again.
func (c *Cache) fromSpill(ctx context.Context, cpath string, fp fingerprint, key string) (spiceraw.Samples, bool) {
	if c.opts.Spill == nil {
		return spiceraw.Samples{}, false
	}
	b, ok, err := c.opts.Spill.Get(ctx, key)
	if err != nil {
		Logger().Warn("spill get failed", zap.String("key", key), zap.Error(err))
		return spiceraw.Samples{}, false
	}
	if !ok {
		return spiceraw.Samples{}, false
	}
	snap, err := c.opts.Codec.Decode(b)
	var s spiceraw.Samples
	if err == nil {
		s, err = snap.Samples()
	}
	if err != nil {
		Logger().Warn("spill entry undecodable", zap.String("key", key), zap.Error(err))
		if derr := c.opts.Spill.Del(ctx, key); derr != nil {
			Logger().Warn("spill delete failed", zap.String("key", key), zap.Error(derr))
		}
		return spiceraw.Samples{}, false
	}
	c.mu.Lock()
	c.spillHits++
	c.mu.Unlock()
	c.admit(ctx, cpath, fp, key, s)
	return s, true
}

// decode opens the raw file lazily and reads exactly the requested
// window.
func (c *Cache) decode(cpath, trace string, step int) (spiceraw.Samples, error) {
	f, err := lazy.Open(cpath)
	if err != nil {
		return spiceraw.Samples{}, err
	}
	defer f.Close()

	t := f.Axis()
	if t == nil || !strings.EqualFold(t.Name(), trace) {
		t, err = f.Trace(trace)
		if err != nil {
			return spiceraw.Samples{}, err
		}
	}
	return t.StepSamples(step)
}

// admit installs a decoded run in the hot tier, evicting from the cold
// end until the budget holds. Evicted entries are offered to the spill
// tier outside the lock.
func (c *Cache) admit(ctx context.Context, cpath string, fp fingerprint, key string, s spiceraw.Samples) {
	cost := s.SizeBytes() + int64(len(key))
	if cost > c.opts.MaxBytes {
		Logger().Debug("run exceeds cache budget, serving uncached",
			zap.String("key", key), zap.Int64("cost", cost))
		return
	}

	var spilled []*entry
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if el, ok := c.items[key]; ok {
		// lost a race against another decode of the same run
		c.ll.MoveToFront(el)
		c.mu.Unlock()
		return
	}
	st, ok := c.files[cpath]
	if ok && st.fp != fp {
		// the file changed while we were decoding; serve uncached
		c.mu.Unlock()
		return
	}
	if !ok {
		st = &fileState{fp: fp, keys: make(map[string]struct{})}
		c.files[cpath] = st
	}
	for c.bytes+cost > c.opts.MaxBytes {
		back := c.ll.Back()
		if back == nil {
			break
		}
		e := c.dropLocked(back)
		c.evictions++
		spilled = append(spilled, e)
	}
	c.items[key] = c.ll.PushFront(&entry{key: key, file: cpath, samples: s, cost: cost})
	st.keys[key] = struct{}{}
	c.bytes += cost
	c.mu.Unlock()

	if c.opts.Spill != nil {
		for _, e := range spilled {
			c.offer(ctx, e)
		}
	}
}

// offer hands an evicted entry to the spill tier, best effort.
func (c *Cache) offer(ctx context.Context, e *entry) {
	b, err := c.opts.Codec.Encode(codec.FromSamples(e.samples))
	if err != nil {
		Logger().Warn("spill encode failed", zap.String("key", e.key), zap.Error(err))
		return
	}
	ok, err := c.opts.Spill.Set(ctx, e.key, b, int64(len(b)))
	if err != nil {
		Logger().Warn("spill set failed", zap.String("key", e.key), zap.Error(err))
		return
	}
	if !ok {
		Logger().Debug("spill declined entry", zap.String("key", e.key))
	}
}

func (c *Cache) removeLocked(key string) bool {
	el, ok := c.items[key]
	if ok {
		c.dropLocked(el)
	}
	return ok
}

func (c *Cache) dropLocked(el *list.Element) *entry {
	e := el.Value.(*entry)
	c.ll.Remove(el)
	delete(c.items, e.key)
	if st, ok := c.files[e.file]; ok {
		delete(st.keys, e.key)
	}
	c.bytes -= e.cost
	return e
}

func entryKey(cpath string, fp fingerprint, trace string, step int) string {
	return cpath + "|" + fp.String() + "|" + strings.ToLower(trace) + "|" + strconv.Itoa(step)
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.WrapIO(errors.PhaseCache, path, err)
	}
	return abs, nil
}
