// Package slog provides logging decorators for glimpse services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/glimpse"
)

// Ensure LoggingLoader implements glimpse.PageLoader.
var _ glimpse.PageLoader = (*LoggingLoader)(nil)

// LoggingLoader wraps a PageLoader with logging.
type LoggingLoader struct {
	next   glimpse.PageLoader
	logger *slog.Logger
}

// NewLoggingLoader creates a new LoggingLoader.
func NewLoggingLoader(next glimpse.PageLoader, logger *slog.Logger) *LoggingLoader {
	return &LoggingLoader{next: next, logger: logger}
}

// Load logs the URL being loaded and delegates to the wrapped loader.
func (l *LoggingLoader) Load(ctx context.Context, url string) (page glimpse.PageView, err error) {
	defer func(begin time.Time) {
		l.logger.Info("load",
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.Load(ctx, url)
}

// Close delegates to the wrapped loader.
func (l *LoggingLoader) Close() error {
	return l.next.Close()
}
