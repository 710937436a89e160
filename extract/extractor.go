package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/glimpse"
)

// DefaultSettleDelay is applied after readiness on single-page application
// sites whose rule does not declare its own delay.
const DefaultSettleDelay = 500 * time.Millisecond

// Declarative tag names, in lookup order per field.
var (
	titleTags       = []string{"og:title", "twitter:title"}
	descriptionTags = []string{"og:description", "twitter:description", "description"}
	imageTags       = []string{"og:image", "og:image:secure_url", "og:image:url", "twitter:image", "twitter:image:src"}
	siteNameTags    = []string{"og:site_name"}
)

var _ glimpse.PreviewExtractor = (*Extractor)(nil)

// Extractor reads a preview from a page: it waits for site-specific
// readiness, reads Open Graph and Twitter Card tags, and falls back to
// heuristic image selection when no tag declares an image.
type Extractor struct {
	Rules    glimpse.SiteRuleMatcher
	Waiter   Waiter
	Selector Selector

	// Metadata, when set, fills a missing description or site name from
	// structured document metadata.
	Metadata glimpse.MetadataReader

	// MaxWait bounds the readiness wait; zero means DefaultMaxWait.
	MaxWait time.Duration

	// SettleDelay is the SPA settle delay for rules without their own;
	// zero means DefaultSettleDelay.
	SettleDelay time.Duration

	Now func() time.Time
}

// NewExtractor returns an Extractor consulting rules.
func NewExtractor(rules glimpse.SiteRuleMatcher) *Extractor {
	return &Extractor{Rules: rules, Now: time.Now}
}

// Extract never returns an empty preview. Failures are reported through
// Success and Error, with the title degraded to the page title or URL.
func (e *Extractor) Extract(ctx context.Context, page glimpse.PageView) (p *glimpse.Preview) {
	p = &glimpse.Preview{Timestamp: e.now().UnixMilli()}
	var pageTitle string

	defer func() {
		if r := recover(); r != nil {
			fail(p, pageTitle, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := e.extract(ctx, page, p, &pageTitle); err != nil {
		fail(p, pageTitle, err)
	}
	return p
}

func (e *Extractor) extract(ctx context.Context, page glimpse.PageView, p *glimpse.Preview, pageTitle *string) error {
	state, err := page.State(ctx)
	if err != nil {
		return fmt.Errorf("reading page state: %w", err)
	}
	p.URL, *pageTitle = state.URL, state.Title

	host := hostname(state.URL)
	rule := e.match(host)

	if rule != nil && rule.WaitFor != "" {
		// A readiness timeout is not an error; extraction proceeds with
		// whatever has rendered.
		e.Waiter.WaitForSelector(ctx, page, rule.WaitFor, e.maxWait())
		if d := e.settleDelay(rule); d > 0 {
			if err := sleep(ctx, d); err != nil {
				return err
			}
		}
		if state, err = page.State(ctx); err != nil {
			return fmt.Errorf("reading page state: %w", err)
		}
		p.URL, *pageTitle = state.URL, state.Title
	}

	tags, err := readTags(ctx, page)
	if err != nil {
		return err
	}

	var ruleTitle, ruleDescription string
	if rule != nil {
		if ruleTitle, err = text(ctx, page, rule.TitleSelector); err != nil {
			return err
		}
		if ruleDescription, err = text(ctx, page, rule.DescriptionSelector); err != nil {
			return err
		}
	}

	p.Title = firstNonEmpty(ruleTitle, tags.first(titleTags), state.Title)
	p.Description = firstNonEmpty(ruleDescription, tags.first(descriptionTags))
	p.SiteName = firstNonEmpty(tags.first(siteNameTags), ruleName(rule))

	if p.Description == "" || p.SiteName == "" {
		if meta := e.readMetadata(ctx, page, state.URL); meta != nil {
			p.Description = firstNonEmpty(p.Description, meta.Description)
			p.SiteName = firstNonEmpty(p.SiteName, meta.SiteName)
		}
	}
	p.SiteName = firstNonEmpty(p.SiteName, strings.TrimPrefix(host, "www."))

	p.ExtractionMethod = glimpse.MethodDocument
	if tags.declarative() {
		p.ExtractionMethod = glimpse.MethodOpenGraph
	}

	if img := tags.first(imageTags); img != "" {
		p.Image = AbsoluteURL(img, state.URL)
	} else {
		selector, method := "img", glimpse.MethodHeuristic
		if rule != nil && rule.ImageSelector != "" {
			selector, method = rule.ImageSelector, glimpse.MethodSiteRule
		}
		elements, err := page.Query(ctx, selector)
		if err != nil {
			return fmt.Errorf("querying image candidates: %w", err)
		}
		if p.Image = e.Selector.Select(ctx, state, elements, rule); p.Image != "" {
			p.ExtractionMethod = method
		}
	}

	p.Success = meaningfulTitle(p.Title, state.URL) || p.Image != "" || p.Description != ""
	if !p.Success {
		p.Title = firstNonEmpty(state.Title, state.URL)
		p.Success = true
		p.ExtractionMethod = glimpse.MethodFallback
	}
	return nil
}

func (e *Extractor) match(host string) *glimpse.SiteRule {
	if e.Rules == nil || host == "" {
		return nil
	}
	return e.Rules.Match(host)
}

// readMetadata returns nil when no reader is configured or the document
// cannot be read. Document metadata only fills gaps, so its failures are
// not extraction failures.
func (e *Extractor) readMetadata(ctx context.Context, page glimpse.PageView, pageURL string) *glimpse.DocumentMetadata {
	if e.Metadata == nil {
		return nil
	}
	raw, err := page.HTML(ctx)
	if err != nil || raw == "" {
		return nil
	}
	meta, err := e.Metadata.ReadMetadata(raw, pageURL)
	if err != nil {
		return nil
	}
	return meta
}

func (e *Extractor) maxWait() time.Duration {
	if e.MaxWait > 0 {
		return e.MaxWait
	}
	return DefaultMaxWait
}

// settleDelay returns the rule's explicit delay, or the default for SPAs.
func (e *Extractor) settleDelay(rule *glimpse.SiteRule) time.Duration {
	if rule.SettleDelay > 0 {
		return rule.SettleDelay
	}
	if !rule.SinglePageApp {
		return 0
	}
	if e.SettleDelay > 0 {
		return e.SettleDelay
	}
	return DefaultSettleDelay
}

func (e *Extractor) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// fail marks p unsuccessful while keeping a usable title.
func fail(p *glimpse.Preview, pageTitle string, err error) {
	p.Success = false
	p.Error = err.Error()
	p.ExtractionMethod = glimpse.MethodError
	p.Title = firstNonEmpty(p.Title, pageTitle, p.URL, "Untitled")
}

// tagSet maps meta property/name keys to the first content seen.
type tagSet map[string]string

func (t tagSet) first(keys []string) string {
	for _, k := range keys {
		if v := t[k]; v != "" {
			return v
		}
	}
	return ""
}

// declarative reports whether any Open Graph or Twitter Card tag is present.
func (t tagSet) declarative() bool {
	for k := range t {
		if strings.HasPrefix(k, "og:") || strings.HasPrefix(k, "twitter:") {
			return true
		}
	}
	return false
}

// readTags collects meta tags keyed by their property or name attribute.
func readTags(ctx context.Context, page glimpse.PageView) (tagSet, error) {
	metas, err := page.Query(ctx, "meta[content]")
	if err != nil {
		return nil, fmt.Errorf("reading meta tags: %w", err)
	}
	tags := make(tagSet)
	for _, m := range metas {
		content, _ := m.Attr("content")
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		for _, attr := range []string{"property", "name"} {
			key, ok := m.Attr(attr)
			if !ok {
				continue
			}
			key = strings.ToLower(strings.TrimSpace(key))
			if _, seen := tags[key]; !seen && key != "" {
				tags[key] = content
			}
		}
	}
	return tags, nil
}

// text returns the text of the first element matching selector.
func text(ctx context.Context, page glimpse.PageView, selector string) (string, error) {
	if selector == "" {
		return "", nil
	}
	els, err := page.Query(ctx, selector)
	if err != nil {
		return "", fmt.Errorf("querying %q: %w", selector, err)
	}
	if len(els) == 0 {
		return "", nil
	}
	return els[0].Text(), nil
}

// meaningfulTitle reports whether title says more than the URL itself.
func meaningfulTitle(title, pageURL string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}
	if title == pageURL {
		return false
	}
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		bare := strings.TrimSuffix(u.Host+u.RequestURI(), "/")
		if strings.TrimSuffix(title, "/") == bare {
			return false
		}
	}
	return true
}

func ruleName(rule *glimpse.SiteRule) string {
	if rule == nil {
		return ""
	}
	return rule.Name
}

func hostname(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
