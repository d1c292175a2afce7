package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type point struct {
	Start string  `json:"start"`
	Value float64 `json:"value"`
}

func TestLoader_CacheAside(t *testing.T) {
	l := NewLoader[[]point](NewMemoryCache(DefaultPolicy()), nil, DefaultPolicy())
	ctx := context.Background()
	var calls atomic.Int32
	load := func(context.Context) ([]point, error) {
		calls.Add(1)
		return []point{{Start: "10:00", Value: 99.5}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := l.Load(ctx, "history", map[string]string{"sys": "a"}, 0, load)
		if err != nil || len(got) != 1 || got[0].Value != 99.5 {
			t.Fatalf("Load() = %v, %v", got, err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("load called %d times, want 1", calls.Load())
	}

	if err := l.Invalidate(ctx, "history", map[string]string{"sys": "a"}); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	_, _ = l.Load(ctx, "history", map[string]string{"sys": "a"}, 0, load)
	if calls.Load() != 2 {
		t.Errorf("load called %d times after invalidate, want 2", calls.Load())
	}
}

func TestLoader_ErrorsNotCached(t *testing.T) {
	l := NewLoader[int](NewMemoryCache(DefaultPolicy()), nil, DefaultPolicy())
	boom := errors.New("store down")
	var calls int

	for i := 0; i < 2; i++ {
		_, err := l.Load(context.Background(), "h", 1, 0, func(context.Context) (int, error) {
			calls++
			return 0, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Load() error = %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("load called %d times, want 2", calls)
	}
}

func TestLoader_Singleflight(t *testing.T) {
	l := NewLoader[int](NewMemoryCache(DefaultPolicy()), nil, DefaultPolicy())
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = l.Load(context.Background(), "h", "same", 0, func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 7, nil
			})
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() < 1 || calls.Load() > 10 {
		t.Fatalf("calls = %d", calls.Load())
	}
	for _, r := range results {
		if r != 7 {
			t.Errorf("result = %d, want 7", r)
		}
	}
}

func TestLoader_NoCachePolicy(t *testing.T) {
	l := NewLoader[int](NewMemoryCache(DefaultPolicy()), nil, NoCachePolicy())
	var calls int
	for i := 0; i < 2; i++ {
		_, _ = l.Load(context.Background(), "h", 1, 0, func(context.Context) (int, error) {
			calls++
			return 1, nil
		})
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
