package extract_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/extract"
	"github.com/fwojciec/glimpse/goquery"
	"github.com/fwojciec/glimpse/mock"
	"github.com/fwojciec/glimpse/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractFrom(t *testing.T, e *extract.Extractor, html, pageURL string) *glimpse.Preview {
	t.Helper()

	page, err := goquery.NewPage(html, pageURL)
	require.NoError(t, err)
	return e.Extract(context.Background(), page)
}

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	newExtractor := func(rs ...glimpse.SiteRule) *extract.Extractor {
		e := extract.NewExtractor(rules.NewRegistry(rs...))
		e.Now = func() time.Time { return fixed }
		e.MaxWait = 20 * time.Millisecond
		return e
	}

	t.Run("open graph title without image", func(t *testing.T) {
		t.Parallel()

		p := extractFrom(t, newExtractor(),
			`<html><head><meta property="og:title" content="Foo"></head><body></body></html>`,
			"https://example.com/foo")

		assert.Equal(t, "Foo", p.Title)
		assert.Equal(t, "", p.Image)
		assert.True(t, p.Success)
		assert.Equal(t, glimpse.MethodOpenGraph, p.ExtractionMethod)
		assert.Equal(t, "https://example.com/foo", p.URL)
		assert.Equal(t, fixed.UnixMilli(), p.Timestamp)
		assert.Empty(t, p.Error)
	})

	t.Run("reads open graph and twitter tags", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<title>Document Title</title>
			<meta name="twitter:title" content="Twitter Title">
			<meta name="twitter:description" content="Twitter description">
			<meta property="og:image" content="/cover.png">
			<meta property="og:site_name" content="Example Site">
			<meta name="description" content="Plain description">
		</head><body><img src="/other.jpg" width="800" height="600"></body></html>`

		p := extractFrom(t, newExtractor(), html, "https://www.example.com/a/b")

		assert.Equal(t, "Twitter Title", p.Title)
		assert.Equal(t, "Twitter description", p.Description)
		assert.Equal(t, "https://www.example.com/cover.png", p.Image)
		assert.Equal(t, "Example Site", p.SiteName)
		assert.Equal(t, glimpse.MethodOpenGraph, p.ExtractionMethod)
		assert.True(t, p.Success)
	})

	t.Run("open graph wins over twitter", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<meta name="twitter:title" content="Twitter Title">
			<meta property="og:title" content="OG Title">
			<meta name="twitter:image" content="https://cdn.example.com/tw.jpg">
			<meta property="og:image:secure_url" content="https://cdn.example.com/og.jpg">
		</head></html>`

		p := extractFrom(t, newExtractor(), html, "https://example.com/")

		assert.Equal(t, "OG Title", p.Title)
		assert.Equal(t, "https://cdn.example.com/og.jpg", p.Image)
	})

	t.Run("protocol-relative tag image takes page scheme", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><meta property="og:image" content="//cdn.example.com/x.jpg"></head></html>`

		p := extractFrom(t, newExtractor(), html, "http://example.com/")

		assert.Equal(t, "http://cdn.example.com/x.jpg", p.Image)
	})

	t.Run("falls back to meta description", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>T</title><meta name="description" content="Plain"></head></html>`

		p := extractFrom(t, newExtractor(), html, "https://example.com/")

		assert.Equal(t, "Plain", p.Description)
	})

	t.Run("site name defaults to hostname without www", func(t *testing.T) {
		t.Parallel()

		p := extractFrom(t, newExtractor(), `<html><head><title>T</title></head></html>`, "https://www.example.org/x")

		assert.Equal(t, "example.org", p.SiteName)
	})

	t.Run("site name from rule", func(t *testing.T) {
		t.Parallel()

		e := newExtractor(glimpse.SiteRule{Domain: "example.org", Name: "Example"})
		p := extractFrom(t, e, `<html><head><title>T</title></head></html>`, "https://www.example.org/x")

		assert.Equal(t, "Example", p.SiteName)
	})

	t.Run("document title only", func(t *testing.T) {
		t.Parallel()

		p := extractFrom(t, newExtractor(), `<html><head><title> Hello </title></head><body></body></html>`, "https://example.com/")

		assert.Equal(t, "Hello", p.Title)
		assert.True(t, p.Success)
		assert.Equal(t, glimpse.MethodDocument, p.ExtractionMethod)
	})

	t.Run("non-declarative meta tags keep the document method", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<meta charset="utf-8">
			<meta name="viewport" content="width=device-width, initial-scale=1">
			<meta name="robots" content="index, follow">
			<title>Plain Page</title>
		</head><body></body></html>`

		p := extractFrom(t, newExtractor(), html, "https://example.com/")

		assert.Equal(t, "Plain Page", p.Title)
		assert.Equal(t, glimpse.MethodDocument, p.ExtractionMethod)
	})

	t.Run("document metadata fills missing fields", func(t *testing.T) {
		t.Parallel()

		var gotURL string
		e := newExtractor()
		e.Metadata = &mock.MetadataReader{
			ReadMetadataFn: func(html, pageURL string) (*glimpse.DocumentMetadata, error) {
				gotURL = pageURL
				return &glimpse.DocumentMetadata{Description: "From JSON-LD", SiteName: "Acme Press"}, nil
			},
		}
		html := `<html><head><meta property="og:title" content="OG Title"><title>Doc</title></head></html>`

		p := extractFrom(t, e, html, "https://www.example.com/a")

		assert.Equal(t, "https://www.example.com/a", gotURL)
		assert.Equal(t, "OG Title", p.Title)
		assert.Equal(t, "From JSON-LD", p.Description)
		assert.Equal(t, "Acme Press", p.SiteName)
		assert.Equal(t, glimpse.MethodOpenGraph, p.ExtractionMethod)
	})

	t.Run("document metadata is skipped when tags are complete", func(t *testing.T) {
		t.Parallel()

		e := newExtractor()
		e.Metadata = &mock.MetadataReader{
			ReadMetadataFn: func(_, _ string) (*glimpse.DocumentMetadata, error) {
				t.Error("metadata reader should not be called")
				return nil, nil
			},
		}
		html := `<html><head>
			<meta property="og:description" content="D">
			<meta property="og:site_name" content="S">
		</head></html>`

		p := extractFrom(t, e, html, "https://example.com/")

		assert.Equal(t, "D", p.Description)
	})

	t.Run("document metadata failure is ignored", func(t *testing.T) {
		t.Parallel()

		e := newExtractor()
		e.Metadata = &mock.MetadataReader{
			ReadMetadataFn: func(_, _ string) (*glimpse.DocumentMetadata, error) {
				return nil, errors.New("malformed document")
			},
		}

		p := extractFrom(t, e, `<html><head><title>Doc</title></head></html>`, "https://www.example.com/")

		assert.True(t, p.Success)
		assert.Empty(t, p.Error)
		assert.Equal(t, "Doc", p.Title)
		assert.Equal(t, "example.com", p.SiteName)
	})

	t.Run("heuristic image when no tag declares one", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>Post</title></head><body>
			<img src="/logo.png" width="400" height="100">
			<img src="/small.jpg" width="50" height="50">
			<img src="/photo.jpg" width="300" height="300">
		</body></html>`

		p := extractFrom(t, newExtractor(), html, "https://example.com/post")

		assert.Equal(t, "https://example.com/photo.jpg", p.Image)
		assert.Equal(t, glimpse.MethodHeuristic, p.ExtractionMethod)
	})

	t.Run("rule selectors win", func(t *testing.T) {
		t.Parallel()

		e := newExtractor(glimpse.SiteRule{
			Domain:              "shop.example",
			ImageSelector:       "#gallery img",
			TitleSelector:       "h1.product",
			DescriptionSelector: ".summary",
		})
		html := `<html><head><meta property="og:title" content="Generic"></head><body>
			<h1 class="product">Blue Kettle</h1>
			<p class="summary">Boils water.</p>
			<img src="/banner.jpg" width="1600" height="900">
			<div id="gallery"><img src="/kettle.jpg" width="300" height="300"></div>
		</body></html>`

		p := extractFrom(t, e, html, "https://shop.example/item/1")

		assert.Equal(t, "Blue Kettle", p.Title)
		assert.Equal(t, "Boils water.", p.Description)
		assert.Equal(t, "https://shop.example/kettle.jpg", p.Image)
		assert.Equal(t, glimpse.MethodSiteRule, p.ExtractionMethod)
	})

	t.Run("synthesizes a fallback when nothing meaningful is found", func(t *testing.T) {
		t.Parallel()

		p := extractFrom(t, newExtractor(), `<html><body><p>hi</p></body></html>`, "https://example.com/empty")

		assert.Equal(t, "https://example.com/empty", p.Title)
		assert.True(t, p.Success)
		assert.Equal(t, glimpse.MethodFallback, p.ExtractionMethod)
	})

	t.Run("title equal to the url is not meaningful", func(t *testing.T) {
		t.Parallel()

		p := extractFrom(t, newExtractor(), `<html><head><title>example.com/page</title></head></html>`, "https://example.com/page")

		assert.Equal(t, glimpse.MethodFallback, p.ExtractionMethod)
		assert.Equal(t, "example.com/page", p.Title)
		assert.True(t, p.Success)
	})

	t.Run("readiness timeout is not an error", func(t *testing.T) {
		t.Parallel()

		e := newExtractor(glimpse.SiteRule{Domain: "example.com", WaitFor: ".never"})
		p := extractFrom(t, e, `<html><head><meta property="og:title" content="Foo"></head></html>`, "https://example.com/")

		assert.True(t, p.Success)
		assert.Equal(t, "Foo", p.Title)
	})

	t.Run("waits the settle delay on single-page apps", func(t *testing.T) {
		t.Parallel()

		e := newExtractor(glimpse.SiteRule{
			Domain:        "app.example",
			WaitFor:       "#root",
			SinglePageApp: true,
			SettleDelay:   30 * time.Millisecond,
		})
		start := time.Now()
		p := extractFrom(t, e, `<html><head><title>App</title></head><body><div id="root"></div></body></html>`, "https://app.example/")

		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
		assert.Equal(t, "App", p.Title)
	})

	t.Run("state failure degrades to an error preview", func(t *testing.T) {
		t.Parallel()

		page := &mock.PageView{
			StateFn: func(_ context.Context) (glimpse.PageState, error) {
				return glimpse.PageState{}, errors.New("target closed")
			},
		}

		p := newExtractor().Extract(context.Background(), page)

		assert.False(t, p.Success)
		assert.Equal(t, glimpse.MethodError, p.ExtractionMethod)
		assert.Contains(t, p.Error, "target closed")
		assert.Equal(t, "Untitled", p.Title)
	})

	t.Run("query failure keeps the page title", func(t *testing.T) {
		t.Parallel()

		page := &mock.PageView{
			StateFn: func(_ context.Context) (glimpse.PageState, error) {
				return glimpse.PageState{URL: "https://example.com/", Title: "Home"}, nil
			},
			QueryFn: func(_ context.Context, _ string) ([]glimpse.Element, error) {
				return nil, errors.New("execution context destroyed")
			},
		}

		p := newExtractor().Extract(context.Background(), page)

		assert.False(t, p.Success)
		assert.Equal(t, "Home", p.Title)
		assert.Equal(t, "https://example.com/", p.URL)
	})

	t.Run("recovers from panics", func(t *testing.T) {
		t.Parallel()

		page := &mock.PageView{
			StateFn: func(_ context.Context) (glimpse.PageState, error) {
				return glimpse.PageState{URL: "https://example.com/"}, nil
			},
			QueryFn: func(_ context.Context, _ string) ([]glimpse.Element, error) {
				panic("boom")
			},
		}

		p := newExtractor().Extract(context.Background(), page)

		assert.False(t, p.Success)
		assert.Equal(t, glimpse.MethodError, p.ExtractionMethod)
		assert.Contains(t, p.Error, "boom")
		assert.Equal(t, "https://example.com/", p.Title)
	})
}
