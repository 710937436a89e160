// Package http provides the static page loader and the host bridge served
// as JSON over HTTP.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/goquery"
)

// DefaultLoadTimeout is the default timeout for HTTP page loads.
// Kept consistent with rod.DefaultLoadTimeout (10s).
const DefaultLoadTimeout = 10 * time.Second

// maxBodySize bounds how much of a response is parsed.
const maxBodySize = 10 << 20

// UserAgent is sent with every page request.
const UserAgent = "Mozilla/5.0 (compatible; glimpse/1.0; +https://github.com/fwojciec/glimpse)"

// Ensure Loader implements glimpse.PageLoader at compile time.
var _ glimpse.PageLoader = (*Loader)(nil)

// Loader loads pages with plain HTTP requests and parses them into static
// page views. It does not execute JavaScript, so lazily rendered content
// is only visible through its markup attributes.
type Loader struct {
	client  *http.Client
	timeout time.Duration
	opts    []goquery.Option
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultLoadTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.timeout = d
	}
}

// WithPageOptions sets options applied to every loaded page.
func WithPageOptions(opts ...goquery.Option) Option {
	return func(l *Loader) {
		l.opts = append(l.opts, opts...)
	}
}

// NewLoader creates a new HTTP-based Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		timeout: DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.client = &http.Client{
		Timeout: l.timeout,
	}

	return l
}

// Load fetches url and returns a static view of the document. The page URL
// is the final URL after redirects.
func (l *Loader) Load(ctx context.Context, url string) (glimpse.PageView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, glimpse.Errorf(glimpse.EINVALID, "invalid url %q: %v", url, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	page, err := goquery.NewPage(string(body), resp.Request.URL.String(), l.opts...)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Close releases resources. For the HTTP loader this is a no-op since
// http.Client doesn't require explicit cleanup.
func (l *Loader) Close() error {
	return nil
}
