package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/glimpse"
)

// Ensure LoggingStore implements glimpse.Store.
var _ glimpse.Store = (*LoggingStore)(nil)

// LoggingStore wraps a Store with logging of writes. Reads are delegated
// without logging.
type LoggingStore struct {
	glimpse.Store
	logger *slog.Logger
}

// NewLoggingStore creates a new LoggingStore.
func NewLoggingStore(next glimpse.Store, logger *slog.Logger) *LoggingStore {
	return &LoggingStore{Store: next, logger: logger}
}

// SaveItem logs the saved URL and delegates to the wrapped store.
func (s *LoggingStore) SaveItem(ctx context.Context, item *glimpse.Item) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("save item",
			"url", item.URL,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Store.SaveItem(ctx, item)
}

// CachePreview logs the cache key and delegates to the wrapped store.
func (s *LoggingStore) CachePreview(ctx context.Context, key string, p *glimpse.Preview) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("cache preview",
			"key", key,
			"url", p.URL,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Store.CachePreview(ctx, key, p)
}

// AddToSession logs the session and delegates to the wrapped store.
func (s *LoggingStore) AddToSession(ctx context.Context, sessionID string, item *glimpse.Item) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("add to session",
			"session", sessionID,
			"url", item.URL,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Store.AddToSession(ctx, sessionID, item)
}
