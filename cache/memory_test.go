package cache

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(p Policy) (*MemoryCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(p)
	c.now = clock.Now
	return c, clock
}

func TestMemoryCache_GetSetDelete(t *testing.T) {
	c, _ := newTestCache(DefaultPolicy())
	ctx := context.Background()

	if v, ok := c.Get(ctx, "missing"); ok || v != nil {
		t.Errorf("Get(missing) = %q, %v", v, ok)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, ok := c.Get(ctx, "k"); !ok || !bytes.Equal(v, []byte("v")) {
		t.Errorf("Get(k) = %q, %v", v, ok)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, clock := newTestCache(DefaultPolicy())
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	clock.Advance(59 * time.Second)
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Error("entry expired early")
	}
	clock.Advance(time.Second)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("entry should be expired")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, expired entry not dropped", c.Len())
	}
}

func TestMemoryCache_TTLClampAndZero(t *testing.T) {
	c, clock := newTestCache(Policy{DefaultTTL: time.Second, MaxTTL: time.Minute})
	ctx := context.Background()

	_ = c.Set(ctx, "zero", []byte("v"), 0)
	if _, ok := c.Get(ctx, "zero"); ok {
		t.Error("ttl=0 should not store")
	}

	_ = c.Set(ctx, "long", []byte("v"), time.Hour)
	clock.Advance(time.Minute)
	if _, ok := c.Get(ctx, "long"); ok {
		t.Error("ttl should be clamped to MaxTTL")
	}
}

func TestMemoryCache_Sweep(t *testing.T) {
	c, clock := newTestCache(DefaultPolicy())
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), time.Second)
	_ = c.Set(ctx, "b", []byte("2"), time.Second)
	_ = c.Set(ctx, "c", []byte("3"), time.Minute)
	clock.Advance(2 * time.Second)

	if got := c.Sweep(); got != 2 {
		t.Errorf("Sweep() = %d, want 2", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestMemoryCache_InvalidKey(t *testing.T) {
	c, _ := newTestCache(DefaultPolicy())
	tests := []struct {
		key  string
		want error
	}{
		{"", ErrInvalidKey},
		{"  ", ErrInvalidKey},
		{"a\nb", ErrInvalidKey},
		{strings.Repeat("k", MaxKeyLength+1), ErrKeyTooLong},
		{"a\x00b", ErrInvalidKey},
	}
	for _, tt := range tests {
		if err := c.Set(context.Background(), tt.key, nil, time.Minute); !errors.Is(err, tt.want) {
			t.Errorf("Set(%q) error = %v, want %v", tt.key, err, tt.want)
		}
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Set(ctx, "k", []byte{byte(i)}, time.Minute)
			c.Get(ctx, "k")
			c.Sweep()
		}(i)
	}
	wg.Wait()
}
