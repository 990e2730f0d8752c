// Package browser implements the scraper's browser capability surface on top
// of chromedp and headless Chrome.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/about-harvester/internal/scraper"
)

const defaultNavigationTimeout = 45 * time.Second

// Config controls the behavior of the chromedp launcher.
type Config struct {
	NavigationTimeout time.Duration
}

// Launcher starts chromedp-backed browser sessions.
type Launcher struct {
	cfg    Config
	logger *zap.Logger
}

// NewLauncher creates a launcher. A nil logger silences chromedp output.
func NewLauncher(cfg Config, logger *zap.Logger) *Launcher {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{cfg: cfg, logger: logger}
}

// Start launches a browser with its own profile directory and warms it up so
// startup failures surface here rather than on the first navigation.
func (l *Launcher) Start(ctx context.Context, cfg scraper.LaunchConfig) (scraper.Browser, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(cfg)...)
	sugar := l.logger.Sugar()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(sugar.Debugf),
		chromedp.WithLogf(sugar.Debugf),
	)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}
	return &Session{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		navTimeout:    l.cfg.NavigationTimeout,
	}, nil
}

func allocatorOptions(cfg scraper.LaunchConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
	)
	if cfg.ProfileDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.ProfileDir))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	for _, flag := range cfg.Flags {
		opts = append(opts, chromedp.Flag(flag, true))
	}
	return opts
}

// Session is a running Chrome instance.
type Session struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	navTimeout    time.Duration

	mu    sync.Mutex
	pages []*Page
}

// NewPage opens a blank tab.
func (s *Session) NewPage(_ context.Context) (scraper.Page, error) {
	tabCtx, cancel := chromedp.NewContext(s.browserCtx)
	if err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, fmt.Errorf("open blank page: %w", err)
	}
	page := &Page{ctx: tabCtx, cancel: cancel, navTimeout: s.navTimeout}
	s.mu.Lock()
	s.pages = append(s.pages, page)
	s.mu.Unlock()
	return page, nil
}

// Stop closes open tabs and the browser, then releases the allocator.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	for _, page := range s.pages {
		page.cancel()
	}
	s.pages = nil
	s.mu.Unlock()
	err := chromedp.Cancel(s.browserCtx)
	s.browserCancel()
	s.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

// Page is a chromedp tab. Calls run against the tab context; the ctx passed
// to each method only bounds the wait.
type Page struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
}

// run executes actions on the tab, aborting early if ctx finishes.
func (p *Page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		taskCtx context.Context
		cancel  context.CancelFunc
	)
	if timeout > 0 {
		taskCtx, cancel = context.WithTimeout(p.ctx, timeout)
	} else {
		taskCtx, cancel = context.WithCancel(p.ctx)
	}
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()
	return chromedp.Run(taskCtx, actions...)
}

// BlockURLs enables the network domain and blocks matching requests.
func (p *Page) BlockURLs(ctx context.Context, patterns []string) error {
	return p.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if len(patterns) == 0 {
			return nil
		}
		params := &network.SetBlockedURLsParams{URLs: patterns}
		if err := params.Do(ctx); err != nil {
			return fmt.Errorf("set blocked urls: %w", err)
		}
		return nil
	}))
}

// Emulate overrides user agent, locale, platform, and device metrics.
func (p *Page) Emulate(ctx context.Context, e scraper.Emulation) error {
	return p.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		ua := emulation.SetUserAgentOverride(e.UserAgent).
			WithAcceptLanguage(e.AcceptLanguage).
			WithPlatform(e.Platform)
		if err := ua.Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		metrics := emulation.SetDeviceMetricsOverride(e.Width, e.Height, e.DeviceScaleFactor, e.Mobile).
			WithScreenOrientation(&emulation.ScreenOrientation{
				Type:  emulation.OrientationTypePortraitPrimary,
				Angle: 0,
			})
		if err := metrics.Do(ctx); err != nil {
			return fmt.Errorf("set device metrics: %w", err)
		}
		return nil
	}))
}

// Navigate loads url and waits for the body to be ready.
func (p *Page) Navigate(ctx context.Context, url string) error {
	err := p.run(ctx, p.navTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Evaluate runs script and decodes the returned value.
func (p *Page) Evaluate(ctx context.Context, script string) (any, error) {
	var raw []byte
	err := p.run(ctx, p.navTimeout, chromedp.Evaluate(script, &raw))
	switch {
	case errors.Is(err, chromedp.ErrJSUndefined), errors.Is(err, chromedp.ErrJSNull):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode evaluation result: %w", err)
	}
	return out, nil
}

// FindByText waits up to timeout for a clickable element whose visible text
// or aria-label contains text, case-insensitively.
func (p *Page) FindByText(ctx context.Context, text string, timeout time.Duration) (scraper.Element, bool, error) {
	var nodeIDs []cdp.NodeID
	err := p.run(ctx, timeout, chromedp.NodeIDs(textXPath(text), &nodeIDs, chromedp.BySearch))
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("find %q: %w", text, err)
	case len(nodeIDs) == 0:
		return nil, false, nil
	}
	return &Element{page: p, id: nodeIDs[0]}, true, nil
}

// Wait blocks for d or until ctx finishes.
func (p *Page) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait: %w", ctx.Err())
	}
}

// Element is a DOM node located on a Page.
type Element struct {
	page *Page
	id   cdp.NodeID
}

// ScrollIntoView scrolls the node into the viewport.
func (e *Element) ScrollIntoView(ctx context.Context) error {
	return e.page.run(ctx, e.page.navTimeout,
		chromedp.ScrollIntoView([]cdp.NodeID{e.id}, chromedp.ByNodeID))
}

// Click dispatches a mouse click on the node.
func (e *Element) Click(ctx context.Context) error {
	return e.page.run(ctx, e.page.navTimeout,
		chromedp.Click([]cdp.NodeID{e.id}, chromedp.ByNodeID))
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
