package mock

import (
	"context"

	"github.com/fwojciec/glimpse"
)

// Compile-time interface verification.
var (
	_ glimpse.PreviewExtractor = (*PreviewExtractor)(nil)
	_ glimpse.SiteRuleMatcher  = (*SiteRuleMatcher)(nil)
	_ glimpse.Capturer         = (*Capturer)(nil)
	_ glimpse.Excerpter        = (*Excerpter)(nil)
	_ glimpse.Previewer        = (*Previewer)(nil)
	_ glimpse.MetadataReader   = (*MetadataReader)(nil)
)

// PreviewExtractor is a mock implementation of glimpse.PreviewExtractor.
type PreviewExtractor struct {
	ExtractFn func(ctx context.Context, page glimpse.PageView) *glimpse.Preview
}

func (e *PreviewExtractor) Extract(ctx context.Context, page glimpse.PageView) *glimpse.Preview {
	return e.ExtractFn(ctx, page)
}

// MetadataReader is a mock implementation of glimpse.MetadataReader.
type MetadataReader struct {
	ReadMetadataFn func(html string, pageURL string) (*glimpse.DocumentMetadata, error)
}

func (r *MetadataReader) ReadMetadata(html string, pageURL string) (*glimpse.DocumentMetadata, error) {
	return r.ReadMetadataFn(html, pageURL)
}

// SiteRuleMatcher is a mock implementation of glimpse.SiteRuleMatcher.
type SiteRuleMatcher struct {
	MatchFn func(hostname string) *glimpse.SiteRule
}

func (m *SiteRuleMatcher) Match(hostname string) *glimpse.SiteRule {
	return m.MatchFn(hostname)
}

// Capturer is a mock implementation of glimpse.Capturer.
type Capturer struct {
	CaptureRegionFn func(ctx context.Context, region glimpse.Region) (*glimpse.Capture, error)
}

func (c *Capturer) CaptureRegion(ctx context.Context, region glimpse.Region) (*glimpse.Capture, error) {
	return c.CaptureRegionFn(ctx, region)
}

// Excerpter is a mock implementation of glimpse.Excerpter.
type Excerpter struct {
	ExcerptFn func(html string, pageURL string) (string, error)
}

func (e *Excerpter) Excerpt(html string, pageURL string) (string, error) {
	return e.ExcerptFn(html, pageURL)
}

// Previewer is a mock implementation of glimpse.Previewer.
type Previewer struct {
	PreviewFn func(ctx context.Context) *glimpse.Preview
}

func (p *Previewer) Preview(ctx context.Context) *glimpse.Preview {
	return p.PreviewFn(ctx)
}
