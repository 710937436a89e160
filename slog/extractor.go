package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/glimpse"
)

// Ensure LoggingExtractor implements glimpse.PreviewExtractor.
var _ glimpse.PreviewExtractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps a PreviewExtractor with logging.
type LoggingExtractor struct {
	next   glimpse.PreviewExtractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next glimpse.PreviewExtractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs the outcome.
// Failed extractions are logged as warnings.
func (e *LoggingExtractor) Extract(ctx context.Context, page glimpse.PageView) *glimpse.Preview {
	begin := time.Now()
	p := e.next.Extract(ctx, page)

	level := slog.LevelInfo
	if !p.Success {
		level = slog.LevelWarn
	}
	e.logger.Log(ctx, level, "extract",
		"url", p.URL,
		"method", p.ExtractionMethod,
		"image", p.Image != "",
		"duration", time.Since(begin),
		"err", p.Error,
	)
	return p
}
