package extract

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/fwojciec/glimpse"
)

// DefaultMinImageSize is the minimum candidate width and height in pixels
// when the site rule does not override it.
const DefaultMinImageSize = 100

// DefaultExclusions lists substrings that mark an image as non-content when
// found in its URL, alt text or class name.
var DefaultExclusions = []string{
	"icon", "logo", "avatar", "profile_pic", "profile-pic",
	"advert", "/ads/", "ad-slot", "adsystem", "doubleclick", "sponsor",
	"banner-ad", "placeholder", "spinner", "loader", "loading.gif",
	"sprite", "emoji", "favicon", "badge", "pixel.gif", "1x1", "spacer", "blank.gif",
	"tracking", "decoration", "divider",
}

// Candidate is an image-bearing element considered for selection.
type Candidate struct {
	Element glimpse.Element
	Index   int    // discovery order
	URL     string // resolved absolute URL, empty when unresolvable
}

// Filter validates candidates against size and exclusion rules.
type Filter struct {
	// MinImageSize applies when the rule has no override.
	// Zero means DefaultMinImageSize.
	MinImageSize int

	// Exclusions overrides DefaultExclusions when non-nil.
	Exclusions []string
}

// Valid reports whether c is large enough and not excluded by vocabulary.
// Viewport visibility is deliberately not considered here.
func (f *Filter) Valid(c Candidate, rule *glimpse.SiteRule) bool {
	min := f.MinImageSize
	if min <= 0 {
		min = DefaultMinImageSize
	}
	if rule != nil && rule.MinImageSize > 0 {
		min = rule.MinImageSize
	}

	w, h := ResolvedSize(c.Element)
	if w < min || h < min {
		return false
	}

	exclusions := f.Exclusions
	if exclusions == nil {
		exclusions = DefaultExclusions
	}
	alt, _ := c.Element.Attr("alt")
	class, _ := c.Element.Attr("class")
	for _, field := range []string{c.URL, alt, class} {
		field = strings.ToLower(field)
		if field == "" {
			continue
		}
		for _, word := range exclusions {
			if strings.Contains(field, word) {
				return false
			}
		}
	}
	return true
}

// ResolvedSize returns the best known size of el: its natural size when
// loaded, else its declared width/height attributes, else its rendered box.
func ResolvedSize(el glimpse.Element) (int, int) {
	if w, h := el.NaturalSize(); w > 0 && h > 0 {
		return w, h
	}
	if w, h := attrInt(el, "width"), attrInt(el, "height"); w > 0 && h > 0 {
		return w, h
	}
	r := el.Rect()
	return int(r.Width), int(r.Height)
}

func attrInt(el glimpse.Element, name string) int {
	v, ok := el.Attr(name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

type sourceKind int

const (
	plainSource sourceKind = iota
	srcsetSource
)

type sourceAttr struct {
	name string
	kind sourceKind
}

// sourceAttrs is the ordered list of attributes consulted for an image URL:
// the direct source, lazy-loading aliases, then responsive source sets.
var sourceAttrs = []sourceAttr{
	{"src", plainSource},
	{"data-src", plainSource},
	{"data-lazy-src", plainSource},
	{"data-original", plainSource},
	{"data-lazy", plainSource},
	{"data-url", plainSource},
	{"data-hi-res-src", plainSource},
	{"data-full-src", plainSource},
	{"poster", plainSource},
	{"srcset", srcsetSource},
	{"data-srcset", srcsetSource},
}

// videoSourceAttrs puts the poster frame first: a video's src is a media
// stream, not an image.
var videoSourceAttrs = func() []sourceAttr {
	attrs := []sourceAttr{{"poster", plainSource}}
	for _, a := range sourceAttrs {
		if a.name != "poster" {
			attrs = append(attrs, a)
		}
	}
	return attrs
}()

// ResolveURL returns the absolute image URL for el relative to pageURL, or
// "" when no usable source attribute exists. Inline data: sources and
// object URLs are treated as placeholders.
func ResolveURL(el glimpse.Element, pageURL string) string {
	base, _ := url.Parse(pageURL)
	attrs := sourceAttrs
	if strings.EqualFold(el.TagName(), "video") {
		attrs = videoSourceAttrs
	}
	for _, src := range attrs {
		v, ok := el.Attr(src.name)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if src.kind == srcsetSource {
			v = BestSrcset(v)
		}
		if v == "" || isPlaceholder(v) {
			continue
		}
		if abs := absoluteURL(base, v); abs != "" {
			return abs
		}
	}
	return ""
}

// BestSrcset returns the URL of the highest-descriptor entry in a srcset
// attribute. Entries without a descriptor count as 1x; ties keep source order.
func BestSrcset(srcset string) string {
	type entry struct {
		url   string
		value float64
	}
	var entries []entry
	for _, part := range strings.Split(srcset, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		e := entry{url: fields[0], value: 1}
		if len(fields) > 1 {
			d := strings.TrimRight(strings.ToLower(fields[1]), "xwh")
			if v, err := strconv.ParseFloat(d, 64); err == nil {
				e.value = v
			}
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return ""
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].value > entries[j].value
	})
	return entries[0].url
}

// AbsoluteURL resolves raw against pageURL. Protocol-relative URLs take the
// page's scheme. Returns "" when raw cannot be resolved.
func AbsoluteURL(raw, pageURL string) string {
	base, _ := url.Parse(pageURL)
	return absoluteURL(base, strings.TrimSpace(raw))
}

func absoluteURL(base *url.URL, raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		scheme := "https"
		if base != nil && base.Scheme != "" {
			scheme = base.Scheme
		}
		raw = scheme + ":" + raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	if base == nil || !base.IsAbs() {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func isPlaceholder(v string) bool {
	v = strings.ToLower(v)
	return strings.HasPrefix(v, "data:") ||
		strings.HasPrefix(v, "blob:") ||
		strings.HasPrefix(v, "mediastream:") ||
		strings.HasPrefix(v, "about:") ||
		strings.HasPrefix(v, "javascript:")
}
