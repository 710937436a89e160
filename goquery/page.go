// Package goquery provides a static glimpse.PageView over parsed HTML.
// It is used for pages fetched without a browser and as a deterministic
// fixture for the extraction engine.
package goquery

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/glimpse"
	"golang.org/x/net/html"
)

// Default viewport used when none is configured.
const (
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
)

var _ glimpse.PageView = (*Page)(nil)

// Page is a glimpse.PageView over a static HTML document.
//
// Static documents have no layout engine, so geometry is approximated with
// a single-column flow: every element starts at the sum of the declared
// heights of the media elements that precede it in document order. Media
// sizes come from width/height attributes or inline style pixels.
type Page struct {
	doc      *goquery.Document
	raw      string
	url      string
	viewport glimpse.Viewport
	tops     map[*html.Node]float64
}

// Option configures a Page.
type Option func(*Page)

// WithViewport sets the viewport width and height.
func WithViewport(width, height float64) Option {
	return func(p *Page) {
		p.viewport.Width = width
		p.viewport.Height = height
	}
}

// WithScrollY sets the vertical scroll offset.
func WithScrollY(y float64) Option {
	return func(p *Page) {
		p.viewport.ScrollY = y
	}
}

// NewPage parses rawHTML as the document located at pageURL.
func NewPage(rawHTML, pageURL string, opts ...Option) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, glimpse.Errorf(glimpse.EINVALID, "failed to parse HTML: %v", err)
	}

	p := &Page{
		doc: doc,
		raw: rawHTML,
		url: pageURL,
		viewport: glimpse.Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
		tops: make(map[*html.Node]float64),
	}
	for _, opt := range opts {
		opt(p)
	}

	total := p.layout()
	p.viewport.ScrollHeight = max(total, p.viewport.Height)

	return p, nil
}

// layout assigns a document top to every element node and returns the
// total flow height.
func (p *Page) layout() float64 {
	var cursor float64
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.tops[n] = cursor
			if isMedia(n.Data) {
				_, h := declaredSize(n)
				cursor += float64(h)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range p.doc.Nodes {
		walk(n)
	}
	return cursor
}

// State returns the page URL, document title and viewport.
func (p *Page) State(ctx context.Context) (glimpse.PageState, error) {
	if err := ctx.Err(); err != nil {
		return glimpse.PageState{}, err
	}
	return glimpse.PageState{
		URL:      p.url,
		Title:    strings.TrimSpace(p.doc.Find("title").First().Text()),
		Viewport: p.viewport,
	}, nil
}

// Query returns the elements matching selector in document order.
func (p *Page) Query(ctx context.Context, selector string) ([]glimpse.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := cascadia.ParseGroup(selector); err != nil {
		return nil, glimpse.Errorf(glimpse.EINVALID, "invalid selector %q: %v", selector, err)
	}

	var elements []glimpse.Element
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, p.newElement(s))
	})
	return elements, nil
}

// Observe returns a channel that never fires: a static document does not
// mutate. The channel is closed when ctx is done.
func (p *Page) Observe(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

// HTML returns the document source.
func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.raw, nil
}

// Close is a no-op for static pages.
func (p *Page) Close() error {
	return nil
}

func (p *Page) newElement(s *goquery.Selection) *element {
	n := s.Get(0)
	w, h := declaredSize(n)
	e := &element{sel: s}
	e.rect = glimpse.Rect{
		Top:    p.tops[n] - p.viewport.ScrollY,
		Left:   0 - p.viewport.ScrollX,
		Width:  float64(w),
		Height: float64(h),
	}
	if isMedia(n.Data) {
		e.natural = [2]int{w, h}
	}
	return e
}

// element is a static snapshot of a goquery selection.
type element struct {
	sel     *goquery.Selection
	rect    glimpse.Rect
	natural [2]int
}

func (e *element) TagName() string {
	return goquery.NodeName(e.sel)
}

func (e *element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *element) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

func (e *element) Rect() glimpse.Rect {
	return e.rect
}

func (e *element) NaturalSize() (int, int) {
	return e.natural[0], e.natural[1]
}

func (e *element) Loaded() bool {
	return e.natural[0] > 0 && e.natural[1] > 0
}

// AwaitLoad reports immediately: a static image is either measurable from
// its declared size or never will be.
func (e *element) AwaitLoad(ctx context.Context) error {
	if e.Loaded() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return glimpse.Errorf(glimpse.EINVALID, "%s has no declared size", e.TagName())
}

func isMedia(tag string) bool {
	switch tag {
	case "img", "video", "canvas", "iframe", "svg":
		return true
	}
	return false
}

var (
	styleWidth  = regexp.MustCompile(`(?i)(?:^|[;\s])width\s*:\s*(\d+(?:\.\d+)?)px`)
	styleHeight = regexp.MustCompile(`(?i)(?:^|[;\s])height\s*:\s*(\d+(?:\.\d+)?)px`)
)

// declaredSize reads pixel dimensions from width/height attributes,
// falling back to inline style declarations.
func declaredSize(n *html.Node) (int, int) {
	var w, h int
	var style string
	for _, a := range n.Attr {
		switch a.Key {
		case "width":
			w = parsePixels(a.Val)
		case "height":
			h = parsePixels(a.Val)
		case "style":
			style = a.Val
		}
	}
	if w == 0 {
		if m := styleWidth.FindStringSubmatch(style); m != nil {
			w = parsePixels(m[1])
		}
	}
	if h == 0 {
		if m := styleHeight.FindStringSubmatch(style); m != nil {
			h = parsePixels(m[1])
		}
	}
	return w, h
}

func parsePixels(s string) int {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}
