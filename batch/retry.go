package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/glimpse"
)

// DefaultRetryDelays returns the backoff delays for load retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// LoadWithRetryDelays loads url with loader, retrying failed attempts after
// each of delays in turn. Invalid requests (a closed loader, a malformed
// URL) are not retried. The logger, if provided, records each retry.
func LoadWithRetryDelays(ctx context.Context, loader glimpse.PageLoader, url string, logger *slog.Logger, delays []time.Duration) (glimpse.PageView, error) {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		page, err := loader.Load(ctx, url)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 || glimpse.ErrorCode(err) == glimpse.EINVALID {
			break
		}

		if logger != nil {
			logger.Debug("retry", "url", url, "attempt", attempt+2, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}
