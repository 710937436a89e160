package rod

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fwojciec/glimpse"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
)

// teardownTimeout bounds the cleanup evaluations run after a context ends.
const teardownTimeout = 2 * time.Second

// defaultAwaitLoad bounds image load waits whose context has no deadline.
const defaultAwaitLoad = 10 * time.Second

const stateJS = `() => ({
	url: location.href,
	title: document.title,
	width: window.innerWidth,
	height: window.innerHeight,
	scrollX: window.scrollX,
	scrollY: window.scrollY,
	scrollHeight: document.documentElement.scrollHeight
})`

const snapshotJS = `() => {
	const r = this.getBoundingClientRect();
	const attrs = {};
	for (const a of this.attributes) attrs[a.name] = a.value;
	return {
		tag: this.tagName.toLowerCase(),
		attrs: attrs,
		text: (this.innerText || this.textContent || '').trim(),
		rect: {top: r.top, left: r.left, width: r.width, height: r.height},
		natural: [this.naturalWidth || this.videoWidth || 0, this.naturalHeight || this.videoHeight || 0],
		complete: this.complete !== false
	};
}`

// awaitLoadJS resolves with the natural size on load, or null on error or
// after ms milliseconds. Listeners are removed when the promise settles.
const awaitLoadJS = `(ms) => new Promise(resolve => {
	const el = this;
	const size = () => [el.naturalWidth || el.videoWidth || 0, el.naturalHeight || el.videoHeight || 0];
	let timer;
	const done = ok => {
		clearTimeout(timer);
		el.removeEventListener('load', onLoad);
		el.removeEventListener('loadeddata', onLoad);
		el.removeEventListener('error', onError);
		resolve(ok ? size() : null);
	};
	const onLoad = () => done(true);
	const onError = () => done(false);
	if (el.complete && size()[0] > 0) return done(true);
	el.addEventListener('load', onLoad);
	el.addEventListener('loadeddata', onLoad);
	el.addEventListener('error', onError);
	timer = setTimeout(() => done(false), ms);
})`

// Mutation observers are registered on window by id so that a subscription
// can be torn down from a separate evaluation.
const (
	observeJS = `(id) => {
	const reg = window.__glimpseObservers = window.__glimpseObservers || {};
	const s = {count: 0, waiters: []};
	s.observer = new MutationObserver(() => {
		s.count++;
		const w = s.waiters;
		s.waiters = [];
		w.forEach(r => r(s.count));
	});
	s.observer.observe(document, {subtree: true, childList: true, attributes: true, characterData: true});
	reg[id] = s;
}`
	nextMutationJS = `(id, seen) => new Promise(resolve => {
	const s = (window.__glimpseObservers || {})[id];
	if (!s) return resolve(-1);
	if (s.count > seen) return resolve(s.count);
	s.waiters.push(resolve);
})`
	unobserveJS = `(id) => {
	const reg = window.__glimpseObservers || {};
	const s = reg[id];
	if (!s) return;
	s.observer.disconnect();
	s.waiters.forEach(r => r(-1));
	delete reg[id];
}`
)

var _ glimpse.PageView = (*Page)(nil)

// Page is a glimpse.PageView over a live browser tab.
type Page struct {
	page    *rod.Page
	release func()
	closed  atomic.Bool
}

// NewPage wraps an open rod page.
func NewPage(page *rod.Page) *Page {
	return &Page{page: page}
}

// Rod returns the underlying rod page.
func (p *Page) Rod() *rod.Page {
	return p.page
}

type stateResult struct {
	URL          string  `json:"url"`
	Title        string  `json:"title"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	ScrollX      float64 `json:"scrollX"`
	ScrollY      float64 `json:"scrollY"`
	ScrollHeight float64 `json:"scrollHeight"`
}

// State reads the location, title and viewport of the tab.
func (p *Page) State(ctx context.Context) (glimpse.PageState, error) {
	var s stateResult
	if err := eval(p.page.Context(ctx), &s, stateJS); err != nil {
		return glimpse.PageState{}, fmt.Errorf("reading page state: %w", err)
	}
	return glimpse.PageState{
		URL:   s.URL,
		Title: s.Title,
		Viewport: glimpse.Viewport{
			Width:        s.Width,
			Height:       s.Height,
			ScrollX:      s.ScrollX,
			ScrollY:      s.ScrollY,
			ScrollHeight: s.ScrollHeight,
		},
	}, nil
}

// Query snapshots every element matching selector. Elements detached
// while being read are skipped.
func (p *Page) Query(ctx context.Context, selector string) ([]glimpse.Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, glimpse.Errorf(glimpse.EINVALID, "querying %q: %v", selector, err)
	}

	elements := make([]glimpse.Element, 0, len(els))
	for _, el := range els {
		e := &element{el: el}
		if err := e.snapshot(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		elements = append(elements, e)
	}
	return elements, nil
}

// Observe reports document mutations until ctx is done, then disconnects
// the page-side observer and closes the channel.
func (p *Page) Observe(ctx context.Context) (<-chan struct{}, error) {
	id := uuid.New().String()
	if _, err := p.page.Context(ctx).Eval(observeJS, id); err != nil {
		return nil, fmt.Errorf("observing mutations: %w", err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer p.unobserve(id)

		page := p.page.Context(ctx)
		seen := 0
		for {
			res, err := page.Eval(nextMutationJS, id, seen)
			if err != nil {
				return
			}
			n := res.Value.Int()
			if n < 0 {
				return
			}
			seen = n
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()
	return ch, nil
}

func (p *Page) unobserve(id string) {
	if p.closed.Load() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	_, _ = p.page.Context(ctx).Eval(unobserveJS, id)
}

// HTML returns the serialized document.
func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

// Close closes the tab. Close is safe to call multiple times.
func (p *Page) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.page.Close()
	if p.release != nil {
		p.release()
	}
	return err
}

type snapshotResult struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs"`
	Text     string            `json:"text"`
	Rect     rectResult        `json:"rect"`
	Natural  [2]int            `json:"natural"`
	Complete bool              `json:"complete"`
}

type rectResult struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// element is a snapshot of a live element plus its handle for load waits.
type element struct {
	el   *rod.Element
	snap snapshotResult
}

func (e *element) snapshot(ctx context.Context) error {
	res, err := e.el.Context(ctx).Eval(snapshotJS)
	if err != nil {
		return err
	}
	return decode(res, &e.snap)
}

func (e *element) TagName() string { return e.snap.Tag }

func (e *element) Attr(name string) (string, bool) {
	v, ok := e.snap.Attrs[name]
	return v, ok
}

func (e *element) Text() string { return e.snap.Text }

func (e *element) Rect() glimpse.Rect {
	r := e.snap.Rect
	return glimpse.Rect{Top: r.Top, Left: r.Left, Width: r.Width, Height: r.Height}
}

func (e *element) NaturalSize() (int, int) { return e.snap.Natural[0], e.snap.Natural[1] }

func (e *element) Loaded() bool {
	return e.snap.Complete && e.snap.Natural[0] > 0 && e.snap.Natural[1] > 0
}

// AwaitLoad waits in the page for the element's load or error event. The
// page-side wait expires with ctx's deadline so listeners never outlive it.
func (e *element) AwaitLoad(ctx context.Context) error {
	wait := defaultAwaitLoad
	if deadline, ok := ctx.Deadline(); ok {
		wait = time.Until(deadline)
	}
	if wait <= 0 {
		return context.DeadlineExceeded
	}

	res, err := e.el.Context(ctx).Eval(awaitLoadJS, wait.Milliseconds())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("awaiting load: %w", err)
	}

	var size *[2]int
	if err := decode(res, &size); err != nil {
		return err
	}
	if size == nil {
		return glimpse.Errorf(glimpse.ETIMEOUT, "%s did not load", e.snap.Tag)
	}
	e.snap.Natural = *size
	e.snap.Complete = true
	return nil
}

func eval(page *rod.Page, dst any, js string, args ...any) error {
	res, err := page.Eval(js, args...)
	if err != nil {
		return err
	}
	return decode(res, dst)
}

func decode(res *proto.RuntimeRemoteObject, dst any) error {
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), dst); err != nil {
		return fmt.Errorf("decoding evaluation result: %w", err)
	}
	return nil
}
