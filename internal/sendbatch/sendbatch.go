// Package sendbatch splits converted requests into backend-size-limited
// batches and dispatches them.
package sendbatch

import (
	"context"
	"sync"

	"go.uber.org/multierr"
)

// Send splits items into consecutive order-preserving chunks of at most
// limit entries and issues one call per chunk, ceil(len(items)/limit)
// calls in total.
//
// Chunks are independent from the backend's perspective and are dispatched
// concurrently. A failed chunk does not prevent the others from being
// sent: all outcomes are collected and combined into the returned error.
// Zero items means zero calls and a nil error.
func Send[T any](ctx context.Context, items []T, limit int, send func(ctx context.Context, chunk []T) error) error {
	if len(items) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = len(items)
	}

	chunks := make([][]T, 0, (len(items)+limit-1)/limit)
	for len(items) > limit {
		chunks = append(chunks, items[:limit:limit])
		items = items[limit:]
	}
	chunks = append(chunks, items)

	errs := make([]error, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = send(ctx, chunk)
		}()
	}
	wg.Wait()

	return multierr.Combine(errs...)
}
