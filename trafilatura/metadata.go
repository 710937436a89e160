// Package trafilatura reads structured document metadata with go-trafilatura.
package trafilatura

import (
	"net/url"
	"strings"

	"github.com/fwojciec/glimpse"
	"github.com/markusmobius/go-trafilatura"
)

var _ glimpse.MetadataReader = (*MetadataReader)(nil)

// MetadataReader extracts the description and site name from JSON-LD,
// Dublin Core and meta tags.
type MetadataReader struct{}

// NewMetadataReader creates a new MetadataReader.
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{}
}

// ReadMetadata parses rawHTML located at pageURL.
func (r *MetadataReader) ReadMetadata(rawHTML string, pageURL string) (*glimpse.DocumentMetadata, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, glimpse.Errorf(glimpse.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}
	if u, err := url.Parse(pageURL); err == nil && u.IsAbs() {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	return &glimpse.DocumentMetadata{
		Description: strings.TrimSpace(result.Metadata.Description),
		SiteName:    strings.TrimSpace(result.Metadata.Sitename),
	}, nil
}
