package rod

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fwojciec/glimpse"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultMaxPages is the default number of tabs opened in one browser
// process before it is replaced.
const DefaultMaxPages = 75

// instance is one launched Chrome process.
type instance struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	opened   int64 // tabs opened since launch
	open     int   // tabs not yet released
	retired  bool
}

func (in *instance) shutdown() error {
	err := in.browser.Close()
	in.launcher.Kill()
	return err
}

// BrowserManager owns headless Chrome processes. After a number of opened
// tabs it launches a fresh process for new tabs; the retired process keeps
// serving the tabs already open in it and exits when the last one is
// released. Chrome's memory baseline keeps growing under sustained load even
// when every tab is closed.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	maxPages int64
	bin      string

	mu      sync.Mutex
	current *instance
	retired []*instance
	closed  bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the number of tabs after which the browser is replaced.
// Defaults to DefaultMaxPages.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithManagerBrowserBin sets the Chrome or Chromium executable. By default
// the launcher looks the browser up on the system and downloads one if none
// is found.
func WithManagerBrowserBin(path string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.bin = path
	}
}

// NewBrowserManager launches a headless browser.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(bm)
	}

	in, err := bm.launch()
	if err != nil {
		return nil, err
	}
	bm.current = in
	return bm, nil
}

// Browser returns the browser that new tabs are opened in.
func (bm *BrowserManager) Browser() *rod.Browser {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.current == nil {
		return nil
	}
	return bm.current.browser
}

// NewPage opens a blank tab. The returned release function must be called
// once the tab is closed; it lets a replaced browser exit after its last tab.
func (bm *BrowserManager) NewPage() (*rod.Page, func(), error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil, nil, glimpse.Errorf(glimpse.EINVALID, "browser manager is closed")
	}
	if bm.current.opened >= bm.maxPages {
		bm.replace()
	}

	in := bm.current
	page, err := in.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, nil, fmt.Errorf("opening tab: %w", err)
	}
	in.opened++
	in.open++

	var once sync.Once
	release := func() {
		once.Do(func() { bm.release(in) })
	}
	return page, release, nil
}

// replace launches a new browser for subsequent tabs. When the launch
// fails the current browser keeps serving. Must be called with mu held.
func (bm *BrowserManager) replace() {
	next, err := bm.launch()
	if err != nil {
		return
	}
	old := bm.current
	bm.current = next
	if old.open == 0 {
		_ = old.shutdown()
		return
	}
	old.retired = true
	bm.retired = append(bm.retired, old)
}

func (bm *BrowserManager) release(in *instance) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	in.open--
	if !in.retired || in.open > 0 || bm.closed {
		return
	}
	_ = in.shutdown()
	for i, r := range bm.retired {
		if r == in {
			bm.retired = append(bm.retired[:i], bm.retired[i+1:]...)
			break
		}
	}
}

// Close shuts down every browser, including ones kept alive for open tabs.
// Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true

	var errs []error
	for _, in := range append(bm.retired, bm.current) {
		if err := in.shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	bm.retired = nil
	return errors.Join(errs...)
}

// launch starts a browser process with flags that keep background tabs
// running at full speed.
func (bm *BrowserManager) launch() (*instance, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)
	if bm.bin != "" {
		l = l.Bin(bm.bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &instance{browser: browser, launcher: l}, nil
}

// LauncherPID returns the process ID of the current browser launcher, or 0
// once closed.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.closed {
		return 0
	}
	return bm.current.launcher.PID()
}
