// Package ristretto adapts dgraph-io/ristretto as a cost-aware spill
// tier. Admission is probabilistic: a Set may be rejected under
// pressure, which the cache layer treats as a declined offer.
package ristretto

import (
	"context"
	"errors"

	rc "github.com/dgraph-io/ristretto"
)

const (
	DefaultNumCounters = 1 << 20
	DefaultBufferItems = 64
)

type Config struct {
	NumCounters int64 // keys tracked for admission frequency; 0 = DefaultNumCounters
	MaxCost     int64 // total byte budget, required
	BufferItems int64 // Set buffer size; 0 = DefaultBufferItems
	Metrics     bool
}

type Provider struct {
	c *rc.Cache
}

func New(cfg Config) (*Provider, error) {
	if cfg.MaxCost <= 0 {
		return nil, errors.New("ristretto: MaxCost must be positive")
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = DefaultNumCounters
	}
	if cfg.BufferItems <= 0 {
		cfg.BufferItems = DefaultBufferItems
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop an entry of unexpected shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64) (bool, error) {
	return p.c.Set(key, value, cost), nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes ristretto's counters when Config.Metrics was set.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
