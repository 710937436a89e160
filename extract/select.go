package extract

import (
	"context"
	"sort"
	"time"

	"github.com/fwojciec/glimpse"
	"golang.org/x/sync/errgroup"
)

// DefaultLoadLimit is the number of leading candidates whose image loads
// are awaited before scoring.
const DefaultLoadLimit = 10

// Selector picks the single best image from a set of elements.
// The zero value is ready to use.
type Selector struct {
	Filter Filter
	Scorer Scorer
	Waiter Waiter

	// LoadLimit bounds how many candidates are awaited; zero means DefaultLoadLimit.
	LoadLimit int

	// LoadTimeout bounds each image wait; zero means DefaultLoadTimeout.
	LoadTimeout time.Duration
}

// Select returns the URL of the best candidate among elements, or "" when
// no element survives filtering or resolves to a URL.
func (s *Selector) Select(ctx context.Context, state glimpse.PageState, elements []glimpse.Element, rule *glimpse.SiteRule) string {
	candidates := s.Candidates(state.URL, elements, rule)
	if len(candidates) == 0 {
		return ""
	}

	if rule != nil && rule.PreferFirstVisible {
		for _, c := range candidates {
			if c.URL != "" && state.Viewport.Contains(c.Element.Rect()) {
				return c.URL
			}
		}
	}

	s.awaitLoads(ctx, candidates)

	ranked := s.Rank(candidates, state.Viewport)
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0].URL
}

// Candidates resolves URLs for elements and keeps the valid ones in
// discovery order.
func (s *Selector) Candidates(pageURL string, elements []glimpse.Element, rule *glimpse.SiteRule) []Candidate {
	var candidates []Candidate
	for i, el := range elements {
		c := Candidate{Element: el, Index: i, URL: ResolveURL(el, pageURL)}
		if s.Filter.Valid(c, rule) {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// Rank scores candidates, drops those without a URL and sorts by
// descending score. Equal scores keep discovery order.
func (s *Selector) Rank(candidates []Candidate, vp glimpse.Viewport) []ScoredCandidate {
	ranked := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.URL == "" {
			continue
		}
		ranked = append(ranked, s.Scorer.Score(c, vp))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// awaitLoads waits concurrently for the leading candidates' images so that
// natural sizes are known when scoring.
func (s *Selector) awaitLoads(ctx context.Context, candidates []Candidate) {
	limit := s.LoadLimit
	if limit <= 0 {
		limit = DefaultLoadLimit
	}
	timeout := s.LoadTimeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}

	var g errgroup.Group
	for _, c := range candidates[:min(limit, len(candidates))] {
		g.Go(func() error {
			s.Waiter.WaitForImageLoad(ctx, c.Element, timeout)
			return nil
		})
	}
	_ = g.Wait()
}
