package batch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/batch"
	"github.com/fwojciec/glimpse/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noDelays is used for fast unit tests.
var noDelays = []time.Duration{0, 0, 0}

func countingLoader(attempts *int, failUntil int, err error) *mock.PageLoader {
	return &mock.PageLoader{
		LoadFn: func(ctx context.Context, url string) (glimpse.PageView, error) {
			*attempts++
			if *attempts <= failUntil {
				return nil, err
			}
			return &mock.PageView{}, nil
		},
	}
}

func TestLoadWithRetryDelays(t *testing.T) {
	t.Parallel()

	t.Run("succeeds on first attempt", func(t *testing.T) {
		t.Parallel()

		var attempts int
		loader := countingLoader(&attempts, 0, nil)

		page, err := batch.LoadWithRetryDelays(context.Background(), loader, "https://example.com", nil, noDelays)

		require.NoError(t, err)
		assert.NotNil(t, page)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retries on failure and succeeds", func(t *testing.T) {
		t.Parallel()

		var attempts int
		loader := countingLoader(&attempts, 3, errors.New("transient error"))

		page, err := batch.LoadWithRetryDelays(context.Background(), loader, "https://example.com", nil, noDelays)

		require.NoError(t, err)
		assert.NotNil(t, page)
		assert.Equal(t, 4, attempts)
	})

	t.Run("returns error after max retries", func(t *testing.T) {
		t.Parallel()

		var attempts int
		loader := countingLoader(&attempts, 100, errors.New("persistent error"))

		_, err := batch.LoadWithRetryDelays(context.Background(), loader, "https://example.com", nil, noDelays)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "persistent error")
		assert.Equal(t, 4, attempts)
	})

	t.Run("does not retry invalid requests", func(t *testing.T) {
		t.Parallel()

		var attempts int
		loader := countingLoader(&attempts, 100, glimpse.Errorf(glimpse.EINVALID, "loader is closed"))

		_, err := batch.LoadWithRetryDelays(context.Background(), loader, "https://example.com", nil, noDelays)

		assert.Equal(t, glimpse.EINVALID, glimpse.ErrorCode(err))
		assert.Equal(t, 1, attempts)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		var attempts int
		loader := &mock.PageLoader{
			LoadFn: func(ctx context.Context, url string) (glimpse.PageView, error) {
				attempts++
				cancel()
				return nil, errors.New("transient error")
			},
		}

		_, err := batch.LoadWithRetryDelays(ctx, loader, "https://example.com", nil, []time.Duration{time.Minute})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	})
}
