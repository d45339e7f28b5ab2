// internal/browser/cdpdriver/backend.go
package cdpdriver

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/security"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/config"
)

// Backend drives Chromium directly over the DevTools protocol. It cannot
// launch Firefox or WebKit.
type Backend struct {
	logger *zap.Logger
}

// New creates a DevTools protocol backend.
func New(logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{logger: logger.Named("cdp")}
}

func (b *Backend) Name() string { return config.BackendCDP }

func (b *Backend) Supports(engine browser.EngineKind) bool {
	return engine == browser.Chromium
}

// Start returns the engine handle. chromedp locates and spawns the browser
// executable lazily, so nothing runs until Launch.
func (b *Backend) Start(ctx context.Context) (browser.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &driver{logger: b.logger}, nil
}

// driver owns the exec allocators it created and cancels them on Stop.
type driver struct {
	logger *zap.Logger

	mu      sync.Mutex
	cancels []context.CancelFunc
}

func (d *driver) Launch(ctx context.Context, engine browser.EngineKind, opts browser.LaunchOptions) (browser.Browser, error) {
	if engine != browser.Chromium {
		return nil, fmt.Errorf("the cdp backend cannot launch %s", engine)
	}

	// The browser must outlive the launch call, so only the first Run is tied to ctx.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	stop := context.AfterFunc(ctx, browserCancel)
	err := chromedp.Run(browserCtx)
	stop()
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	d.mu.Lock()
	d.cancels = append(d.cancels, allocCancel)
	d.mu.Unlock()

	version := "unknown"
	c := chromedp.FromContext(browserCtx)
	if _, product, _, _, _, err := cdpbrowser.GetVersion().Do(cdp.WithExecutor(browserCtx, c.Browser)); err == nil {
		version = product
	} else {
		d.logger.Debug("Could not read browser version.", zap.Error(err))
	}

	return &cdpBrowser{ctx: browserCtx, cancel: browserCancel, version: version, slowMo: opts.SlowMo}, nil
}

// Stop terminates every browser process this driver started.
func (d *driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	cancels := d.cancels
	d.cancels = nil
	d.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return nil
}

// allocatorOptions starts from chromedp's defaults and applies the launch
// settings. User args are accepted with or without the leading dashes.
func allocatorOptions(opts browser.LaunchOptions) []chromedp.ExecAllocatorOption {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", opts.Headless),
		chromedp.Flag("disable-extensions", true),
	)

	for _, arg := range opts.Args {
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			allocOpts = append(allocOpts, chromedp.Flag(name, value))
		} else {
			allocOpts = append(allocOpts, chromedp.Flag(name, true))
		}
	}

	// Flags required for running inside containers.
	if runtime.GOOS == "linux" {
		allocOpts = append(allocOpts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
	}
	return allocOpts
}

type cdpBrowser struct {
	ctx     context.Context
	cancel  context.CancelFunc
	version string
	slowMo  time.Duration
}

// NewContext opens an isolated browser context with its first tab.
func (b *cdpBrowser) NewContext(ctx context.Context, opts browser.ContextOptions) (browser.BrowsingContext, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.ctx, chromedp.WithNewBrowserContext())

	var setup chromedp.Tasks
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		setup = append(setup, chromedp.EmulateViewport(int64(opts.Viewport.Width), int64(opts.Viewport.Height)))
	}
	if opts.IgnoreHTTPSErrors {
		setup = append(setup, security.SetIgnoreCertificateErrors(true))
	}

	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx, setup)
	stop()
	if err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	return &cdpContext{ctx: tabCtx, cancel: tabCancel, slowMo: b.slowMo}, nil
}

func (b *cdpBrowser) Version() string { return b.version }

// Close shuts the browser down gracefully. The driver still owns the allocator.
func (b *cdpBrowser) Close(ctx context.Context) error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

type cdpContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	slowMo time.Duration

	mu    sync.Mutex
	used  bool
	extra []context.CancelFunc
}

// NewPage returns the context's first tab, then opens further tabs in the
// same browser context.
func (c *cdpContext) NewPage(ctx context.Context) (browser.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.used {
		c.used = true
		return newPage(c.ctx, c.slowMo), nil
	}

	pageCtx, pageCancel := chromedp.NewContext(c.ctx)
	stop := context.AfterFunc(ctx, pageCancel)
	err := chromedp.Run(pageCtx)
	stop()
	if err != nil {
		pageCancel()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	c.extra = append(c.extra, pageCancel)
	return newPage(pageCtx, c.slowMo), nil
}

// Close closes every tab and disposes of the browser context.
func (c *cdpContext) Close(ctx context.Context) error {
	c.mu.Lock()
	extra := c.extra
	c.extra = nil
	c.mu.Unlock()

	for _, cancel := range extra {
		cancel()
	}
	err := chromedp.Cancel(c.ctx)
	c.cancel()
	if err != nil {
		return fmt.Errorf("failed to close browser context: %w", err)
	}
	return nil
}
