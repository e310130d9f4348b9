package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMapBoundsConcurrency(t *testing.T) {
	cases := []struct {
		items int
		limit int
	}{
		{items: 20, limit: 3},
		{items: 2, limit: 10},
		{items: 1, limit: 1},
		{items: 50, limit: 50},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("items=%d_limit=%d", tc.items, tc.limit), func(t *testing.T) {
			items := make([]int, tc.items)
			for i := range items {
				items[i] = i
			}

			bound := tc.limit
			if tc.items < bound {
				bound = tc.items
			}

			var inFlight, peak atomic.Int64
			var processed atomic.Int64
			results := Map(context.Background(), items, tc.limit, func(_ context.Context, item int) (int, error) {
				current := inFlight.Add(1)
				for {
					old := peak.Load()
					if current <= old || peak.CompareAndSwap(old, current) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inFlight.Add(-1)
				processed.Add(1)
				return item * 2, nil
			})

			if got := int(peak.Load()); got > bound {
				t.Fatalf("in-flight peak %d exceeded bound %d", got, bound)
			}
			if got := int(processed.Load()); got != tc.items {
				t.Fatalf("processed %d items, want %d", got, tc.items)
			}
			for i, result := range results {
				if result.Err != nil {
					t.Fatalf("item %d: unexpected error %v", i, result.Err)
				}
				if result.Value != i*2 {
					t.Fatalf("item %d: result out of order, got %d", i, result.Value)
				}
			}
		})
	}
}

func TestMapIsolatesFailures(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}
	boom := errors.New("boom")

	results := Map(context.Background(), items, 2, func(_ context.Context, item int) (string, error) {
		if item == 2 {
			return "", boom
		}
		return fmt.Sprintf("ok-%d", item), nil
	})

	for i, result := range results {
		if i == 2 {
			if !errors.Is(result.Err, boom) {
				t.Fatalf("item 2: expected failure, got %v", result.Err)
			}
			continue
		}
		if result.Err != nil {
			t.Fatalf("item %d: sibling failed: %v", i, result.Err)
		}
		if result.Value != fmt.Sprintf("ok-%d", i) {
			t.Fatalf("item %d: unexpected value %q", i, result.Value)
		}
	}
}

func TestMapEmptyInput(t *testing.T) {
	results := Map(context.Background(), nil, 4, func(_ context.Context, item int) (int, error) {
		t.Fatal("fn called for empty input")
		return 0, nil
	})
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestMapContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	items := make([]int, 16)
	var started sync.WaitGroup
	started.Add(1)
	var once sync.Once

	results := Map(ctx, items, 1, func(ctx context.Context, _ int) (int, error) {
		once.Do(func() {
			cancel()
			started.Done()
		})
		return 1, nil
	})

	started.Wait()
	if results[0].Err != nil {
		t.Fatalf("first item should have completed: %v", results[0].Err)
	}
	var cancelled int
	for _, result := range results[1:] {
		if errors.Is(result.Err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled != len(results)-1 {
		t.Fatalf("expected remaining %d items cancelled, got %d", len(results)-1, cancelled)
	}
}
