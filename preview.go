package glimpse

import (
	"context"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Extraction methods recorded on a Preview.
const (
	MethodOpenGraph = "opengraph"
	MethodSiteRule  = "site-rule"
	MethodHeuristic = "heuristic"
	MethodDocument  = "document"
	MethodFallback  = "fallback"
	MethodError     = "error"
)

// Preview is the raw result of one extraction.
type Preview struct {
	URL              string `json:"url"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Image            string `json:"image"`
	SiteName         string `json:"siteName"`
	Success          bool   `json:"success"`
	Error            string `json:"error,omitempty"`
	Timestamp        int64  `json:"timestamp"` // Unix milliseconds
	ExtractionMethod string `json:"extractionMethod"`
}

// PreviewExtractor extracts a preview from a page.
type PreviewExtractor interface {
	// Extract never fails: problems degrade to a best-effort preview with
	// Success false and Error set.
	Extract(ctx context.Context, page PageView) *Preview
}

// DocumentMetadata is page metadata read from the document itself:
// JSON-LD, Dublin Core and plain meta tags.
type DocumentMetadata struct {
	Description string
	SiteName    string
}

// MetadataReader reads document metadata from raw HTML.
type MetadataReader interface {
	ReadMetadata(html string, pageURL string) (*DocumentMetadata, error)
}

// PreviewCache caches previews by page identity.
type PreviewCache interface {
	// Get returns the cached preview or nil when absent or expired.
	Get(key string) *Preview
	Set(key string, p *Preview)
	Clear()
}

// CacheKey returns the persistent cache key for a page URL.
func CacheKey(pageURL string) string {
	return strconv.FormatUint(xxhash.Sum64String(pageURL), 16)
}
