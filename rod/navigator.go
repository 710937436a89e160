package rod

import (
	"context"
	"sync"

	"github.com/fwojciec/glimpse"
	"github.com/go-rod/rod/lib/proto"
)

var _ glimpse.Navigator = (*Navigator)(nil)

// Navigator reports main-frame navigations of a tab from the browser's
// navigation events: history pushes and pops within the document as well
// as cross-document traversal.
type Navigator struct {
	page *Page
}

// NewNavigator returns a Navigator for page.
func NewNavigator(page *Page) *Navigator {
	return &Navigator{page: page}
}

// OnNavigate calls fn with the new URL after each main-frame navigation
// until the returned function is called.
func (n *Navigator) OnNavigate(fn func(url string)) (cancel func()) {
	ctx, stop := context.WithCancel(context.Background())
	tab := n.page.Rod()

	wait := tab.Context(ctx).EachEvent(
		func(e *proto.PageFrameNavigated) {
			if e.Frame != nil && e.Frame.ParentID == "" {
				fn(e.Frame.URL)
			}
		},
		func(e *proto.PageNavigatedWithinDocument) {
			if e.FrameID == tab.FrameID {
				fn(e.URL)
			}
		},
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		wait()
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			<-done
		})
	}
}
