// Package batch previews many URLs concurrently with per-domain throttling,
// load retries and duplicate suppression.
package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/bloom"
	"github.com/fwojciec/glimpse/normalize"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of pages processed at once.
const DefaultConcurrency = 4

// MetadataExcerpt is the item metadata key holding the readable excerpt.
const MetadataExcerpt = "excerpt"

// Result is the outcome of previewing one URL.
type Result struct {
	URL      string
	Preview  *glimpse.Preview
	Item     *glimpse.Item
	Rendered bool // loaded with the fallback loader
	Skipped  bool // duplicate of an earlier URL
	Err      error
}

// Runner previews URLs in parallel.
//
// Loader opens every page. When Fallback and Detector are both set and the
// detector reports that a loaded document needs rendering, the page is
// reopened with Fallback instead.
type Runner struct {
	Loader    glimpse.PageLoader
	Fallback  glimpse.PageLoader
	Detector  glimpse.RenderDetector
	Extractor glimpse.PreviewExtractor

	// Optional collaborators.
	Excerpter glimpse.Excerpter
	Store     glimpse.Store
	Pacer     *Pacer
	Seen      *bloom.Seen

	// Concurrency defaults to DefaultConcurrency.
	Concurrency int

	// RetryDelays defaults to DefaultRetryDelays. An empty non-nil slice
	// disables retries.
	RetryDelays []time.Duration

	// OnResult is called once per URL as results complete. Calls are serialized.
	OnResult func(Result)

	Logger *slog.Logger

	mu sync.Mutex
}

// Run previews urls and returns one result per input URL in input order.
// Per-URL failures are reported in the results; the returned error is
// non-nil only when ctx ends before all URLs are processed.
func (r *Runner) Run(ctx context.Context, urls []string) ([]Result, error) {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]Result, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, u := range urls {
		if r.Seen != nil && r.Seen.Check(u) {
			results[i] = Result{URL: u, Skipped: true}
			r.report(results[i])
			continue
		}
		g.Go(func() error {
			results[i] = r.preview(gctx, u)
			r.report(results[i])
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

func (r *Runner) report(res Result) {
	if r.OnResult == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.OnResult(res)
}

func (r *Runner) preview(ctx context.Context, rawURL string) Result {
	res := Result{URL: rawURL}

	if r.Pacer != nil {
		if err := r.Pacer.Wait(ctx, rawURL); err != nil {
			res.Err = err
			return res
		}
	}

	page, err := r.load(ctx, r.Loader, rawURL)
	if err != nil {
		res.Err = err
		return res
	}
	defer func() { page.Close() }()

	var html string
	if r.Excerpter != nil || r.needsDetection() {
		html, _ = page.HTML(ctx)
	}

	if r.needsDetection() && html != "" && r.Detector.RequiresRender(html) {
		rendered, err := r.load(ctx, r.Fallback, rawURL)
		if err != nil {
			res.Err = err
			return res
		}
		page.Close()
		page = rendered
		res.Rendered = true
		if r.Excerpter != nil {
			html, _ = page.HTML(ctx)
		}
	}

	p := r.Extractor.Extract(ctx, page)
	if p.URL == "" {
		p.URL = rawURL
	}
	res.Preview = p

	item, err := normalize.Item(normalize.Preview(p))
	if err != nil {
		res.Err = err
		return res
	}
	res.Item = item

	if r.Excerpter != nil && html != "" {
		if excerpt, err := r.Excerpter.Excerpt(html, p.URL); err == nil {
			if item.Metadata == nil {
				item.Metadata = make(map[string]any)
			}
			item.Metadata[MetadataExcerpt] = excerpt
		} else if r.Logger != nil {
			r.Logger.Debug("no excerpt", "url", p.URL, "error", err)
		}
	}

	if r.Store != nil && p.Success {
		if err := r.Store.CachePreview(ctx, glimpse.CacheKey(p.URL), p); err != nil {
			res.Err = err
			return res
		}
		if err := r.Store.SaveItem(ctx, item); err != nil {
			res.Err = err
			return res
		}
	}

	return res
}

func (r *Runner) needsDetection() bool {
	return r.Fallback != nil && r.Detector != nil
}

func (r *Runner) load(ctx context.Context, loader glimpse.PageLoader, rawURL string) (glimpse.PageView, error) {
	delays := r.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	return LoadWithRetryDelays(ctx, loader, rawURL, r.Logger, delays)
}
