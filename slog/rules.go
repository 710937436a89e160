package slog

import (
	"log/slog"

	"github.com/fwojciec/glimpse"
)

// Ensure LoggingMatcher implements glimpse.SiteRuleMatcher.
var _ glimpse.SiteRuleMatcher = (*LoggingMatcher)(nil)

// LoggingMatcher wraps a SiteRuleMatcher with debug logging of rule matches.
type LoggingMatcher struct {
	next   glimpse.SiteRuleMatcher
	logger *slog.Logger
}

// NewLoggingMatcher creates a new LoggingMatcher.
func NewLoggingMatcher(next glimpse.SiteRuleMatcher, logger *slog.Logger) *LoggingMatcher {
	return &LoggingMatcher{next: next, logger: logger}
}

// Match delegates to the wrapped matcher and logs which rule applied.
func (m *LoggingMatcher) Match(hostname string) *glimpse.SiteRule {
	rule := m.next.Match(hostname)
	domain := "(none)"
	if rule != nil {
		domain = rule.Domain
	}
	m.logger.Debug("site rule",
		"host", hostname,
		"rule", domain,
	)
	return rule
}
