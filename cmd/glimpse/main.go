package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/extract"
	"github.com/fwojciec/glimpse/goquery"
	glimpsehttp "github.com/fwojciec/glimpse/http"
	"github.com/fwojciec/glimpse/readability"
	"github.com/fwojciec/glimpse/rod"
	"github.com/fwojciec/glimpse/rules"
	glimpseslog "github.com/fwojciec/glimpse/slog"
	"github.com/fwojciec/glimpse/sqlite"
	"github.com/fwojciec/glimpse/trafilatura"
	"github.com/fwojciec/glimpse/yaml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path used when --db is not given. Set before calling Run().
	DBPath string

	// SQLite database used by the store.
	DB *sqlite.DB

	// Store for end-to-end testing.
	Store glimpse.Store
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("glimpse"),
		kong.Description("Extract link previews from web pages"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'glimpse --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	m.applyDefaults(cli)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	// Site rules from the rule file take precedence over the built-in ones.
	var fileRules []glimpse.SiteRule
	if cli.Rules != "" {
		if fileRules, err = yaml.LoadRulesFile(cli.Rules); err != nil {
			return fmt.Errorf("failed to load site rules: %w", err)
		}
	}
	registry := rules.NewRegistry(fileRules...)
	for _, r := range rules.Defaults() {
		registry.Register(r)
	}
	deps.Rules = glimpseslog.NewLoggingMatcher(registry, deps.Logger)

	extractor := extract.NewExtractor(deps.Rules)
	extractor.Metadata = trafilatura.NewMetadataReader()
	extractor.MaxWait = cli.MaxWait
	deps.Extractor = glimpseslog.NewLoggingExtractor(extractor, deps.Logger)

	m.DB = sqlite.NewDB(cli.DB)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set GLIMPSE_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", cli.DB, err)
	}
	defer m.Close()

	m.Store = glimpseslog.NewLoggingStore(sqlite.NewStore(m.DB), deps.Logger)
	deps.Store = m.Store

	switch cmd {
	case "preview":
		static := glimpseslog.NewLoggingLoader(glimpsehttp.NewLoader(glimpsehttp.WithTimeout(cli.Timeout)), deps.Logger)
		deps.Excerpter = readability.NewExcerpter()

		if cli.Preview.Static && !cli.Preview.Auto {
			deps.Loader = static
			break
		}

		browser, err := newBrowserLoader(stderr, cli)
		if err != nil {
			return err
		}
		defer browser.Close()
		rendered := glimpseslog.NewLoggingLoader(browser, deps.Logger)

		if cli.Preview.Auto {
			deps.Loader = static
			deps.Renderer = rendered
			deps.Detector = goquery.NewDetector()
		} else {
			deps.Loader = rendered
		}

	case "watch", "serve":
		browser, err := newBrowserLoader(stderr, cli)
		if err != nil {
			return err
		}
		defer browser.Close()
		deps.OpenLive = func(ctx context.Context, url string) (*Live, error) {
			return openLive(ctx, browser, url)
		}
	}

	return kongCtx.Run(deps)
}

// applyDefaults sets default values for unspecified flags.
func (m *Main) applyDefaults(cli *CLI) {
	if cli.DB == "" {
		cli.DB = m.DBPath
	}
	if cli.Timeout <= 0 {
		cli.Timeout = rod.DefaultLoadTimeout
	}
	if cli.MaxWait <= 0 {
		cli.MaxWait = extract.DefaultMaxWait
	}
}

func newBrowserLoader(stderr io.Writer, cli *CLI) (*rod.Loader, error) {
	loader, err := rod.NewLoader(rod.WithLoadTimeout(cli.Timeout), rod.WithBrowserBin(cli.Chrome))
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return loader, nil
}

// openLive loads url in a browser tab and attaches navigation and capture
// capabilities to it.
func openLive(ctx context.Context, loader *rod.Loader, url string) (*Live, error) {
	view, err := loader.Load(ctx, url)
	if err != nil {
		return nil, err
	}
	page, ok := view.(*rod.Page)
	if !ok {
		view.Close()
		return nil, glimpse.Errorf(glimpse.EINTERNAL, "unexpected page type %T", view)
	}
	return &Live{
		Page:      page,
		Navigator: rod.NewNavigator(page),
		Capturer:  rod.NewCapturer(page),
	}, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "glimpse.db"
	}
	dir := filepath.Join(home, ".glimpse")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "glimpse.db")
}
