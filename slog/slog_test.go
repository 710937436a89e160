package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/mock"
	glimpseslog "github.com/fwojciec/glimpse/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingLoader_Load(t *testing.T) {
	t.Parallel()

	t.Run("logs load with duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		page := &mock.PageView{}
		inner := &mock.PageLoader{
			LoadFn: func(_ context.Context, _ string) (glimpse.PageView, error) {
				return page, nil
			},
		}

		loader := glimpseslog.NewLoggingLoader(inner, newLogger(&buf))
		got, err := loader.Load(context.Background(), "https://example.com/docs")

		require.NoError(t, err)
		assert.Same(t, page, got)
		output := buf.String()
		assert.Contains(t, output, "msg=load")
		assert.Contains(t, output, "url=https://example.com/docs")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.PageLoader{
			LoadFn: func(_ context.Context, _ string) (glimpse.PageView, error) {
				return nil, errors.New("network error")
			},
		}

		_, err := glimpseslog.NewLoggingLoader(inner, newLogger(&buf)).Load(context.Background(), "https://example.com/")

		require.Error(t, err)
		assert.Contains(t, buf.String(), `err="network error"`)
	})

	t.Run("delegates close", func(t *testing.T) {
		t.Parallel()

		closed := false
		inner := &mock.PageLoader{CloseFn: func() error { closed = true; return nil }}

		require.NoError(t, glimpseslog.NewLoggingLoader(inner, slog.Default()).Close())
		assert.True(t, closed)
	})
}

func TestLoggingExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("logs method at info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.PreviewExtractor{
			ExtractFn: func(_ context.Context, _ glimpse.PageView) *glimpse.Preview {
				return &glimpse.Preview{URL: "https://example.com/", Success: true, ExtractionMethod: glimpse.MethodHeuristic, Image: "x"}
			},
		}

		p := glimpseslog.NewLoggingExtractor(inner, newLogger(&buf)).Extract(context.Background(), &mock.PageView{})

		assert.True(t, p.Success)
		output := buf.String()
		assert.Contains(t, output, "level=INFO")
		assert.Contains(t, output, "method=heuristic")
		assert.Contains(t, output, "image=true")
	})

	t.Run("logs failures as warnings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.PreviewExtractor{
			ExtractFn: func(_ context.Context, _ glimpse.PageView) *glimpse.Preview {
				return &glimpse.Preview{Success: false, Error: "boom", ExtractionMethod: glimpse.MethodError}
			},
		}

		glimpseslog.NewLoggingExtractor(inner, newLogger(&buf)).Extract(context.Background(), &mock.PageView{})

		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "err=boom")
	})
}

func TestLoggingMatcher_Match(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := &mock.SiteRuleMatcher{
		MatchFn: func(hostname string) *glimpse.SiteRule {
			if hostname == "www.youtube.com" {
				return &glimpse.SiteRule{Domain: "youtube.com"}
			}
			return nil
		},
	}
	m := glimpseslog.NewLoggingMatcher(inner, newLogger(&buf))

	rule := m.Match("www.youtube.com")
	require.NotNil(t, rule)
	assert.Nil(t, m.Match("example.com"))

	output := buf.String()
	assert.Contains(t, output, "rule=youtube.com")
	assert.Contains(t, output, "rule=(none)")
}

func TestLoggingStore(t *testing.T) {
	t.Parallel()

	t.Run("logs saves and delegates reads", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		var saved *glimpse.Item
		inner := &mock.Store{
			SaveItemFn: func(_ context.Context, item *glimpse.Item) error {
				saved = item
				return nil
			},
			RecentItemsFn: func(_ context.Context, _ int) ([]*glimpse.Item, error) {
				return []*glimpse.Item{{URL: "u"}}, nil
			},
		}
		s := glimpseslog.NewLoggingStore(inner, newLogger(&buf))

		require.NoError(t, s.SaveItem(context.Background(), &glimpse.Item{URL: "https://example.com/"}))
		items, err := s.RecentItems(context.Background(), 1)

		require.NoError(t, err)
		assert.Len(t, items, 1)
		require.NotNil(t, saved)
		assert.Contains(t, buf.String(), "save item")
		assert.Contains(t, buf.String(), "url=https://example.com/")
	})

	t.Run("logs session errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Store{
			AddToSessionFn: func(_ context.Context, _ string, _ *glimpse.Item) error {
				return glimpse.Errorf(glimpse.ENOTFOUND, "session not found")
			},
		}

		err := glimpseslog.NewLoggingStore(inner, newLogger(&buf)).AddToSession(context.Background(), "s1", &glimpse.Item{URL: "u"})

		assert.Equal(t, glimpse.ENOTFOUND, glimpse.ErrorCode(err))
		assert.Contains(t, buf.String(), "session=s1")
	})
}
