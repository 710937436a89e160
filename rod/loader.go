// Package rod renders pages in headless Chrome and exposes them to the
// extraction engine as live page views.
package rod

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fwojciec/glimpse"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultLoadTimeout bounds navigation and the load event.
const DefaultLoadTimeout = 10 * time.Second

// Default viewport emulated for every tab.
const (
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
)

// Ensure Loader implements glimpse.PageLoader at compile time.
var _ glimpse.PageLoader = (*Loader)(nil)

// Loader opens URLs in headless Chrome tabs.
// Loader is safe for concurrent use by multiple goroutines.
type Loader struct {
	manager  *BrowserManager
	timeout  time.Duration
	width    int
	height   int
	maxPages int64
	bin      string
	closed   atomic.Bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithLoadTimeout sets the timeout for navigation and the load event.
// Defaults to DefaultLoadTimeout (10s) if not specified.
func WithLoadTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.timeout = d
	}
}

// WithViewport sets the emulated viewport size.
func WithViewport(width, height int) Option {
	return func(l *Loader) {
		l.width = width
		l.height = height
	}
}

// WithRecycleAfter sets the number of pages after which the browser is
// replaced. Defaults to DefaultMaxPages.
func WithRecycleAfter(n int64) Option {
	return func(l *Loader) {
		l.maxPages = n
	}
}

// WithBrowserBin sets the Chrome or Chromium executable.
func WithBrowserBin(path string) Option {
	return func(l *Loader) {
		l.bin = path
	}
}

// NewLoader creates a Loader backed by a freshly launched headless browser.
// Close must be called when the Loader is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewLoader(opts ...Option) (*Loader, error) {
	l := &Loader{
		timeout:  DefaultLoadTimeout,
		width:    DefaultViewportWidth,
		height:   DefaultViewportHeight,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(l)
	}

	manager, err := NewBrowserManager(WithMaxPages(l.maxPages), WithManagerBrowserBin(l.bin))
	if err != nil {
		return nil, err
	}
	l.manager = manager
	return l, nil
}

// Load opens url in a new tab and waits for the load event. The returned
// page must be closed by the caller.
func (l *Loader) Load(ctx context.Context, url string) (glimpse.PageView, error) {
	if l.closed.Load() {
		return nil, glimpse.Errorf(glimpse.EINVALID, "loader is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tab, release, err := l.manager.NewPage()
	if err != nil {
		return nil, err
	}
	page := NewPage(tab)
	page.release = release

	if err := tab.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             l.width,
		Height:            l.height,
		DeviceScaleFactor: 1,
	}); err != nil {
		page.Close()
		return nil, fmt.Errorf("setting viewport: %w", err)
	}

	loadCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	nav := tab.Context(loadCtx)
	if err := nav.Navigate(url); err != nil {
		page.Close()
		return nil, loadError(loadCtx, url, err)
	}
	if err := nav.WaitLoad(); err != nil {
		page.Close()
		return nil, loadError(loadCtx, url, err)
	}

	return page, nil
}

func loadError(ctx context.Context, url string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("loading %s: %w", url, ctxErr)
	}
	return fmt.Errorf("loading %s: %w", url, err)
}

// LauncherPID returns the process ID of the browser launcher.
func (l *Loader) LauncherPID() int {
	return l.manager.LauncherPID()
}

// Close releases browser resources. Close is safe to call multiple times.
func (l *Loader) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.manager.Close()
}
