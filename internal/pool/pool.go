package pool

import (
	"context"
	"sync"
	"sync/atomic"
)

// Result pairs one input item's output with the error its worker observed.
type Result[O any] struct {
	Value O
	Err   error
}

// Map invokes fn for every item with at most min(limit, len(items)) calls
// in flight at a time. Results are returned in input order. A failing item
// records its error in its own result slot and never cancels sibling work;
// context cancellation only stops workers from claiming further items, and
// unclaimed items report ctx.Err().
//
// Workers share a single monotonically advancing cursor into the item
// list: each worker repeatedly claims the next unclaimed index until the
// list is exhausted.
func Map[I, O any](ctx context.Context, items []I, limit int, fn func(context.Context, I) (O, error)) []Result[O] {
	results := make([]Result[O], len(items))
	if len(items) == 0 {
		return results
	}
	if limit <= 0 {
		limit = 1
	}
	workers := limit
	if len(items) < workers {
		workers = len(items)
	}

	var cursor atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				index := int(cursor.Add(1)) - 1
				if index >= len(items) {
					return
				}
				if err := ctx.Err(); err != nil {
					results[index] = Result[O]{Err: err}
					continue
				}
				value, err := fn(ctx, items[index])
				results[index] = Result[O]{Value: value, Err: err}
			}
		}()
	}
	wg.Wait()
	return results
}
