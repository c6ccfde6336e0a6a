package ristretto

import (
	"bytes"
	"context"
	"testing"
)

func newProvider(t *testing.T, cfg Config) *Provider {
	t.Helper()
	if cfg.MaxCost == 0 {
		cfg.MaxCost = 1 << 20
	}
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close(context.Background()) })
	return p
}

func TestConfigValidation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New accepted a zero MaxCost")
	}
	if _, err := New(Config{MaxCost: -1}); err == nil {
		t.Fatal("New accepted a negative MaxCost")
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t, Config{})

	value := []byte("ltspice ac sweep payload")
	ok, err := p.Set(ctx, "run.raw|v(out)|0", value, int64(len(value)))
	if err != nil || !ok {
		t.Fatalf("Set = (%v, %v)", ok, err)
	}
	// Admission is buffered. Drain it so the lookup below is deterministic.
	p.c.Wait()

	got, ok, err := p.Get(ctx, "run.raw|v(out)|0")
	if err != nil || !ok {
		t.Fatalf("Get = (%v, %v)", ok, err)
	}
	if !bytes.Equal(got, value) {
		t.Fatalf("Get = %q, want %q", got, value)
	}

	if _, ok, err := p.Get(ctx, "absent"); err != nil || ok {
		t.Fatalf("absent key = (%v, %v), want miss", ok, err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t, Config{})

	if _, err := p.Set(ctx, "k", []byte("v"), 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	p.c.Wait()
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	p.c.Wait()
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatal("entry survived Del")
	}
	if err := p.Del(ctx, "absent"); err != nil {
		t.Fatalf("Del of absent key: %v", err)
	}
}

func TestForeignValueReadsAsMiss(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t, Config{})

	// A value stored outside the provider may not be []byte. The adapter
	// must report a miss rather than panic on the type assertion.
	p.c.Set("k", 12345, 1)
	p.c.Wait()

	if _, ok, err := p.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("non-byte value = (%v, %v), want miss", ok, err)
	}
	// The miss path drops the foreign entry, so later reads miss too.
	if _, ok, err := p.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("second read = (%v, %v), want miss", ok, err)
	}
}

func TestMetrics(t *testing.T) {
	p := newProvider(t, Config{Metrics: true})
	if p.Metrics() == nil {
		t.Fatal("Metrics() = nil with metrics enabled")
	}
}
