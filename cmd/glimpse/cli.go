package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/glimpse"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	Store     glimpse.Store
	Rules     glimpse.SiteRuleMatcher
	Extractor glimpse.PreviewExtractor
	Excerpter glimpse.Excerpter

	// Loader opens pages for the preview command. Renderer, when set, reopens
	// pages that Detector reports as client-rendered.
	Loader   glimpse.PageLoader
	Renderer glimpse.PageLoader
	Detector glimpse.RenderDetector

	// OpenLive opens a page in a browser tab for the watch and serve commands.
	OpenLive func(ctx context.Context, url string) (*Live, error)
}

// Live is a page open in a browser tab together with its in-page
// navigation events and screenshot capture.
type Live struct {
	Page      glimpse.PageView
	Navigator glimpse.Navigator
	Capturer  glimpse.Capturer
}

// Close closes the tab.
func (l *Live) Close() error {
	return l.Page.Close()
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB      string        `name:"db" env:"GLIMPSE_DB" help:"SQLite database path"`
	Rules   string        `env:"GLIMPSE_RULES" help:"YAML site rule file"`
	Timeout time.Duration `help:"Page load timeout"`
	MaxWait time.Duration `name:"max-wait" help:"Maximum wait for site readiness selectors"`
	Chrome  string        `env:"GLIMPSE_CHROME" help:"Chrome or Chromium executable"`
	Verbose bool          `short:"v" help:"Enable debug logging"`

	Preview PreviewCmd `cmd:"" help:"Extract previews for one or more URLs"`
	Watch   WatchCmd   `cmd:"" help:"Print a page's preview and re-print it on every in-app navigation"`
	Recent  RecentCmd  `cmd:"" help:"List recently saved previews"`
	Serve   ServeCmd   `cmd:"" help:"Serve the host bridge for a live page over HTTP"`
}

// PreviewCmd is the "preview" subcommand.
type PreviewCmd struct {
	URLs        []string `arg:"" name:"url" help:"Page URLs"`
	Static      bool     `short:"s" help:"Load pages over HTTP without a browser"`
	Auto        bool     `help:"Load pages over HTTP and render only client-side applications in the browser"`
	Save        bool     `help:"Save successful previews to the recent list"`
	Excerpt     bool     `short:"e" help:"Add a readable text excerpt to metadata"`
	Concurrency int      `short:"c" default:"4" help:"Concurrent page limit"`
	Rate        float64  `default:"1" help:"Page loads per second per domain (0 disables)"`
}

// WatchCmd is the "watch" subcommand.
type WatchCmd struct {
	URL string `arg:"" help:"Page URL"`
}

// RecentCmd is the "recent" subcommand.
type RecentCmd struct {
	Limit int `short:"n" default:"10" help:"Maximum number of items (0 for all)"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	URL  string `arg:"" help:"Page URL to attach to"`
	Addr string `default:"127.0.0.1:7878" help:"Listen address"`
}
