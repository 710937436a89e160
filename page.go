package glimpse

import "context"

// Rect is an element's bounding box in CSS pixels, relative to the viewport.
type Rect struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

// Bottom returns the bottom edge of the rect.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Right returns the right edge of the rect.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Viewport describes the visible window and the scrollable document.
type Viewport struct {
	Width        float64
	Height       float64
	ScrollX      float64
	ScrollY      float64
	ScrollHeight float64
}

// Contains reports whether any part of r lies inside the viewport.
func (v Viewport) Contains(r Rect) bool {
	return r.Bottom() > 0 && r.Top < v.Height && r.Right() > 0 && r.Left < v.Width
}

// PageState is a point-in-time reading of the page's location, title and viewport.
type PageState struct {
	URL      string
	Title    string
	Viewport Viewport
}

// Element is a snapshot of an on-page element taken when it was queried.
// Implementations never copy pixel data; they only expose geometry and attributes.
type Element interface {
	// TagName returns the lowercase tag name (e.g. "img", "video").
	TagName() string

	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)

	// Text returns the trimmed text content.
	Text() string

	// Rect returns the bounding box relative to the viewport.
	Rect() Rect

	// NaturalSize returns the intrinsic media size, or zeros when unknown.
	NaturalSize() (width, height int)

	// Loaded reports whether the media finished loading with a nonzero natural size.
	Loaded() bool

	// AwaitLoad blocks until the media loads (nil), fails to load (error),
	// or ctx is done (ctx.Err()). Event handlers are removed before returning
	// and the snapshot's natural size is refreshed on success.
	AwaitLoad(ctx context.Context) error
}

// PageView is the engine's capability over a rendered document it does not own.
type PageView interface {
	// State reads the current location, title and viewport.
	State(ctx context.Context) (PageState, error)

	// Query returns all elements matching the CSS selector in document order.
	Query(ctx context.Context, selector string) ([]Element, error)

	// Observe subscribes to mutations of the whole document subtree, including
	// attribute changes. A value is sent for each batch of mutations. The
	// subscription is torn down and the channel closed when ctx is done.
	Observe(ctx context.Context) (<-chan struct{}, error)

	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)

	// Close releases resources held for the page.
	Close() error
}

// PageLoader opens pages by URL.
type PageLoader interface {
	// Load navigates to the URL and returns a view of the loaded document.
	// The caller must Close the returned page.
	Load(ctx context.Context, url string) (PageView, error)

	// Close releases loader resources.
	Close() error
}

// Navigator delivers in-page navigation signals: programmatic route pushes
// and history traversal that change the location without a full reload.
type Navigator interface {
	// OnNavigate registers fn to be called with the new URL on each navigation.
	// The returned function unsubscribes.
	OnNavigate(fn func(url string)) (cancel func())
}

// RenderDetector decides whether a statically fetched document needs a
// browser to produce its content.
type RenderDetector interface {
	RequiresRender(html string) bool
}
