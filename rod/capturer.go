package rod

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/fwojciec/glimpse"
	"github.com/go-rod/rod/lib/proto"
)

var _ glimpse.Capturer = (*Capturer)(nil)

// Capturer screenshots regions of a tab's viewport.
type Capturer struct {
	page *Page
}

// NewCapturer returns a Capturer for page.
func NewCapturer(page *Page) *Capturer {
	return &Capturer{page: page}
}

// CaptureRegion returns region as a PNG data URL. The clip is applied by
// the browser, so the result never needs cropping.
func (c *Capturer) CaptureRegion(ctx context.Context, region glimpse.Region) (*glimpse.Capture, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}

	state, err := c.page.State(ctx)
	if err != nil {
		return nil, err
	}

	img, err := c.page.Rod().Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      region.X + state.Viewport.ScrollX,
			Y:      region.Y + state.Viewport.ScrollY,
			Width:  region.Width,
			Height: region.Height,
			Scale:  1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}

	return &glimpse.Capture{
		Success: true,
		DataURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
	}, nil
}
