package mock

import (
	"context"

	"github.com/fwojciec/glimpse"
)

// Compile-time interface verification.
var (
	_ glimpse.PageView       = (*PageView)(nil)
	_ glimpse.Element        = (*Element)(nil)
	_ glimpse.PageLoader     = (*PageLoader)(nil)
	_ glimpse.Navigator      = (*Navigator)(nil)
	_ glimpse.RenderDetector = (*RenderDetector)(nil)
)

// PageView is a mock implementation of glimpse.PageView.
type PageView struct {
	StateFn   func(ctx context.Context) (glimpse.PageState, error)
	QueryFn   func(ctx context.Context, selector string) ([]glimpse.Element, error)
	ObserveFn func(ctx context.Context) (<-chan struct{}, error)
	HTMLFn    func(ctx context.Context) (string, error)
	CloseFn   func() error
}

func (p *PageView) State(ctx context.Context) (glimpse.PageState, error) {
	return p.StateFn(ctx)
}

func (p *PageView) Query(ctx context.Context, selector string) ([]glimpse.Element, error) {
	return p.QueryFn(ctx, selector)
}

func (p *PageView) Observe(ctx context.Context) (<-chan struct{}, error) {
	return p.ObserveFn(ctx)
}

func (p *PageView) HTML(ctx context.Context) (string, error) {
	return p.HTMLFn(ctx)
}

func (p *PageView) Close() error {
	if p.CloseFn == nil {
		return nil
	}
	return p.CloseFn()
}

// Element is a fixed-value implementation of glimpse.Element.
// AwaitLoadFn defaults to reporting the current Loaded state.
type Element struct {
	Tag     string
	Attrs   map[string]string
	Content string
	Box     glimpse.Rect
	Natural [2]int

	AwaitLoadFn func(ctx context.Context) error
}

func (e *Element) TagName() string { return e.Tag }

func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

func (e *Element) Text() string { return e.Content }

func (e *Element) Rect() glimpse.Rect { return e.Box }

func (e *Element) NaturalSize() (int, int) { return e.Natural[0], e.Natural[1] }

func (e *Element) Loaded() bool { return e.Natural[0] > 0 && e.Natural[1] > 0 }

func (e *Element) AwaitLoad(ctx context.Context) error {
	if e.AwaitLoadFn != nil {
		return e.AwaitLoadFn(ctx)
	}
	if e.Loaded() {
		return nil
	}
	return glimpse.Errorf(glimpse.EINVALID, "no intrinsic size")
}

// PageLoader is a mock implementation of glimpse.PageLoader.
type PageLoader struct {
	LoadFn  func(ctx context.Context, url string) (glimpse.PageView, error)
	CloseFn func() error
}

func (l *PageLoader) Load(ctx context.Context, url string) (glimpse.PageView, error) {
	return l.LoadFn(ctx, url)
}

func (l *PageLoader) Close() error {
	return l.CloseFn()
}

// Navigator is a mock implementation of glimpse.Navigator.
type Navigator struct {
	OnNavigateFn func(fn func(url string)) (cancel func())
}

func (n *Navigator) OnNavigate(fn func(url string)) (cancel func()) {
	return n.OnNavigateFn(fn)
}

// RenderDetector is a mock implementation of glimpse.RenderDetector.
type RenderDetector struct {
	RequiresRenderFn func(html string) bool
}

func (d *RenderDetector) RequiresRender(html string) bool {
	return d.RequiresRenderFn(html)
}
