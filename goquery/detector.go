package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/glimpse"
)

var _ glimpse.RenderDetector = (*Detector)(nil)

// Detector recognizes client-rendered applications from their static HTML.
// It checks for framework hydration markers and for empty mount points that
// only JavaScript fills in.
type Detector struct{}

// NewDetector creates a new Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// RequiresRender reports whether html is an application shell whose
// content appears only after scripts run. Documents that already declare
// preview tags never require rendering.
func (d *Detector) RequiresRender(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}

	if d.hasPreviewTags(doc) {
		return false
	}

	// Hydration payloads and framework root attributes.
	if d.hasSelector(doc, "script#__NEXT_DATA__") ||
		d.hasSelector(doc, "#__next") ||
		d.hasSelector(doc, "#__nuxt") ||
		d.hasSelector(doc, "[ng-version]") ||
		d.hasSelector(doc, "[data-reactroot]") ||
		d.hasSelector(doc, "[data-server-rendered]") {
		return true
	}

	// Empty mount points.
	for _, sel := range []string{"#root", "#app", "app-root"} {
		mount := doc.Find(sel).First()
		if mount.Length() > 0 && strings.TrimSpace(mount.Text()) == "" && mount.Children().Length() == 0 {
			return true
		}
	}

	// A body with scripts but no visible text.
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return strings.TrimSpace(body.Text()) == "" && doc.Find("body script").Length() > 0
}

// hasPreviewTags checks for Open Graph or Twitter title and image tags.
func (d *Detector) hasPreviewTags(doc *goquery.Document) bool {
	var title, image bool
	doc.Find("meta[content]").Each(func(_ int, s *goquery.Selection) {
		key, ok := s.Attr("property")
		if !ok {
			key, _ = s.Attr("name")
		}
		switch strings.ToLower(key) {
		case "og:title", "twitter:title":
			title = true
		case "og:image", "twitter:image":
			image = true
		}
	})
	return title && image
}

// hasSelector checks if the document contains at least one element matching the selector.
func (d *Detector) hasSelector(doc *goquery.Document, selector string) bool {
	return doc.Find(selector).Length() > 0
}
