// Package extract implements the preview extraction engine: readiness
// waiting, image candidate filtering and scoring, best-image selection,
// metadata extraction, per-page caching and SPA navigation handling.
package extract

import (
	"context"
	"time"

	"github.com/fwojciec/glimpse"
)

// Default wait bounds.
const (
	DefaultMaxWait     = 3 * time.Second
	DefaultLoadTimeout = 1500 * time.Millisecond
)

// Waiter blocks until page content is ready. Timeouts are not errors: they
// resolve to nil or false so callers can fall back.
type Waiter struct{}

// WaitForSelector returns the first element matching selector, waiting for
// document mutations up to timeout. Returns nil on timeout or query failure.
func (w *Waiter) WaitForSelector(ctx context.Context, page glimpse.PageView, selector string, timeout time.Duration) glimpse.Element {
	if el := first(ctx, page, selector); el != nil {
		return el
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel() // tears down the mutation observer

	mutations, err := page.Observe(ctx)
	if err != nil {
		return nil
	}

	// Content may have rendered between the first query and the subscription.
	if el := first(ctx, page, selector); el != nil {
		return el
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-mutations:
			if !ok {
				return nil
			}
			if el := first(ctx, page, selector); el != nil {
				return el
			}
		}
	}
}

// WaitForImageLoad reports whether el finishes loading within timeout.
// Already-loaded images return true immediately.
func (w *Waiter) WaitForImageLoad(ctx context.Context, el glimpse.Element, timeout time.Duration) bool {
	if el.Loaded() {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return el.AwaitLoad(ctx) == nil
}

func first(ctx context.Context, page glimpse.PageView, selector string) glimpse.Element {
	els, err := page.Query(ctx, selector)
	if err != nil || len(els) == 0 {
		return nil
	}
	return els[0]
}
