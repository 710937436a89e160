package extract

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/glimpse"
)

// Visit holds the extraction state of one open page: its preview cache, the
// last observed location, and the subscribers notified when an in-page
// navigation produces a fresh preview.
type Visit struct {
	Page      glimpse.PageView
	Extractor glimpse.PreviewExtractor
	Cache     glimpse.PreviewCache
	Rules     glimpse.SiteRuleMatcher

	// SettleDelay is waited after an SPA navigation before extracting, for
	// rules without their own delay. Zero means DefaultSettleDelay.
	SettleDelay time.Duration

	Logger *slog.Logger

	mu      sync.Mutex
	lastURL string
	gen     uint64
	cancel  context.CancelFunc
	subs    map[int]func(*glimpse.Preview)
	nextSub int
	wg      sync.WaitGroup
}

// NewVisit returns a Visit over page with a default cache.
func NewVisit(page glimpse.PageView, extractor glimpse.PreviewExtractor, rules glimpse.SiteRuleMatcher) *Visit {
	return &Visit{
		Page:      page,
		Extractor: extractor,
		Cache:     NewCache(),
		Rules:     rules,
	}
}

// Preview returns the cached preview for the page's current location, or
// extracts and caches a new one.
func (v *Visit) Preview(ctx context.Context) *glimpse.Preview {
	state, err := v.Page.State(ctx)
	if err != nil {
		// Extract degrades the failure into an error preview.
		return v.Extractor.Extract(ctx, v.Page)
	}

	key := glimpse.CacheKey(state.URL)
	if p := v.Cache.Get(key); p != nil {
		return p
	}

	p := v.Extractor.Extract(ctx, v.Page)
	if p.Success {
		v.Cache.Set(key, p)
	}
	return p
}

// Subscribe registers fn to receive previews produced by navigation.
// The returned function unsubscribes.
func (v *Visit) Subscribe(fn func(*glimpse.Preview)) (unsubscribe func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.subs == nil {
		v.subs = make(map[int]func(*glimpse.Preview))
	}
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

// Watch re-extracts the page on in-page navigation to a new location on
// single-page application sites. Other navigations only update the last
// observed location. The returned function stops watching and waits for any
// in-flight extraction to finish.
func (v *Visit) Watch(ctx context.Context, nav glimpse.Navigator) (stop func()) {
	ctx, cancelWatch := context.WithCancel(ctx)

	if state, err := v.Page.State(ctx); err == nil {
		v.mu.Lock()
		v.lastURL = state.URL
		v.mu.Unlock()
	}

	unsubscribe := nav.OnNavigate(func(url string) {
		v.navigated(ctx, url)
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			// Canceling under the lock orders every wg.Add in navigated
			// before the Wait below.
			v.mu.Lock()
			cancelWatch()
			v.mu.Unlock()
			v.wg.Wait()
		})
	}
}

func (v *Visit) navigated(ctx context.Context, url string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if url == v.lastURL || ctx.Err() != nil {
		return
	}
	v.lastURL = url

	rule := v.match(url)
	if rule == nil || !rule.SinglePageApp {
		return
	}

	v.logger().Debug("spa navigation", "url", url, "rule", rule.Domain)
	v.Cache.Clear()

	// A newer navigation supersedes the in-flight one.
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	gen := v.gen
	runCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		defer cancel()
		v.refresh(runCtx, gen, url, v.settleDelay(rule))
	}()
}

func (v *Visit) refresh(ctx context.Context, gen uint64, url string, delay time.Duration) {
	if err := sleep(ctx, delay); err != nil {
		return
	}

	p := v.Extractor.Extract(ctx, v.Page)

	v.mu.Lock()
	if gen != v.gen || ctx.Err() != nil {
		v.mu.Unlock()
		v.logger().Debug("discarding stale preview", "url", url)
		return
	}
	if p.Success {
		key := p.URL
		if key == "" {
			key = url
		}
		v.Cache.Set(glimpse.CacheKey(key), p)
	}
	subs := make([]func(*glimpse.Preview), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.Unlock()

	for _, fn := range subs {
		fn(p)
	}
}

func (v *Visit) match(url string) *glimpse.SiteRule {
	host := hostname(url)
	if v.Rules == nil || host == "" {
		return nil
	}
	return v.Rules.Match(host)
}

func (v *Visit) settleDelay(rule *glimpse.SiteRule) time.Duration {
	if rule.SettleDelay > 0 {
		return rule.SettleDelay
	}
	if v.SettleDelay > 0 {
		return v.SettleDelay
	}
	return DefaultSettleDelay
}

func (v *Visit) logger() *slog.Logger {
	if v.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return v.Logger
}
