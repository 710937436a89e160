package glimpse

import (
	"context"
	"encoding/json"
)

// Host bridge actions.
const (
	ActionFetchOpenGraph       = "fetch-opengraph"
	ActionCaptureSelection     = "capture-screenshot-selection"
	ActionSaveCapturedImage    = "save-captured-image"
	ActionSaveOpenGraphPreview = "save-opengraph-preview"
)

// Message is a request exchanged with the host runtime bridge.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Region is a rectangle of the viewport selected for capture.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Validate returns an error if the region is empty.
func (r Region) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return Errorf(EINVALID, "region must have positive width and height")
	}
	return nil
}

// Capture is the response to a screenshot selection.
type Capture struct {
	Success   bool   `json:"success"`
	DataURL   string `json:"dataUrl"`
	NeedsCrop bool   `json:"needsCrop"`
}

// Capturer captures a region of the visible page.
type Capturer interface {
	CaptureRegion(ctx context.Context, region Region) (*Capture, error)
}

// Excerpter derives a short plain-text excerpt from a page's HTML.
type Excerpter interface {
	Excerpt(html string, pageURL string) (string, error)
}

// Previewer returns the preview of the page a bridge is attached to.
type Previewer interface {
	Preview(ctx context.Context) *Preview
}

// Bridge sends request/response messages to the host runtime.
type Bridge interface {
	// Send delivers msg and returns the raw response payload.
	Send(ctx context.Context, msg Message) (json.RawMessage, error)
}
