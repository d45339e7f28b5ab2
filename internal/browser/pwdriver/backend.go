// internal/browser/pwdriver/backend.go
package pwdriver

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/config"
)

const (
	installTimeout = 5 * time.Minute
	launchTimeout  = 60 * time.Second
)

// Backend drives chromium, firefox and webkit through the Playwright driver.
type Backend struct {
	logger  *zap.Logger
	install []browser.EngineKind
}

// Option configures a Backend.
type Option func(*Backend)

// WithInstall makes Start install the given engines before running the driver.
func WithInstall(engines ...browser.EngineKind) Option {
	return func(b *Backend) { b.install = engines }
}

// New creates a Playwright backend.
func New(logger *zap.Logger, opts ...Option) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Backend{logger: logger.Named("playwright")}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string { return config.BackendPlaywright }

// Supports reports true for every engine Playwright ships.
func (b *Backend) Supports(engine browser.EngineKind) bool {
	switch engine {
	case browser.Chromium, browser.Firefox, browser.WebKit:
		return true
	default:
		return false
	}
}

// Start runs the Playwright driver process. The driver must already be
// installed unless WithInstall was given.
func (b *Backend) Start(ctx context.Context) (browser.Driver, error) {
	if len(b.install) > 0 {
		if err := Install(ctx, b.logger, b.install...); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run(&playwright.RunOptions{Verbose: false})
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright driver: %w", err)
	}
	b.logger.Debug("Playwright driver started.")
	return &driver{pw: pw, logger: b.logger}, nil
}

// Install downloads the Playwright driver and the browsers for engines.
// playwright.Install blocks without a context, so it runs in a goroutine
// bounded by ctx and installTimeout.
func Install(ctx context.Context, logger *zap.Logger, engines ...browser.EngineKind) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	names := make([]string, 0, len(engines))
	for _, e := range engines {
		names = append(names, e.String())
	}
	logger.Info("Verifying Playwright browser installation.", zap.Strings("engines", names))

	installCtx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := playwright.Install(&playwright.RunOptions{Browsers: names}); err != nil {
			errCh <- fmt.Errorf("failed to install playwright browsers: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-installCtx.Done():
		return fmt.Errorf("timeout waiting for playwright installation: %w", installCtx.Err())
	}
}

// driver wraps a running Playwright instance.
type driver struct {
	pw     *playwright.Playwright
	logger *zap.Logger
}

func (d *driver) Launch(ctx context.Context, engine browser.EngineKind, opts browser.LaunchOptions) (browser.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var bt playwright.BrowserType
	switch engine {
	case browser.Chromium:
		bt = d.pw.Chromium
	case browser.Firefox:
		bt = d.pw.Firefox
	case browser.WebKit:
		bt = d.pw.WebKit
	default:
		return nil, fmt.Errorf("unsupported engine %q", engine)
	}

	b, err := bt.Launch(launchOptions(engine, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", engine, err)
	}
	return &pwBrowser{b: b}, nil
}

func (d *driver) Stop(ctx context.Context) error {
	if err := d.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright driver: %w", err)
	}
	d.logger.Debug("Playwright driver stopped.")
	return nil
}

// launchOptions maps launch settings onto Playwright's options. Chromium gets
// the flags it needs to run inside containers.
func launchOptions(engine browser.EngineKind, opts browser.LaunchOptions) playwright.BrowserTypeLaunchOptions {
	lo := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Timeout:  playwright.Float(milliseconds(launchTimeout)),
	}
	if opts.SlowMo > 0 {
		lo.SlowMo = playwright.Float(milliseconds(opts.SlowMo))
	}

	var args []string
	if engine == browser.Chromium {
		args = append(args, "--disable-gpu", "--no-sandbox", "--disable-dev-shm-usage")
	}
	args = append(args, opts.Args...)
	if len(args) > 0 {
		lo.Args = args
	}
	return lo
}

func contextOptions(opts browser.ContextOptions) playwright.BrowserNewContextOptions {
	co := playwright.BrowserNewContextOptions{}
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		co.Viewport = &playwright.Size{Width: opts.Viewport.Width, Height: opts.Viewport.Height}
	}
	if opts.IgnoreHTTPSErrors {
		co.IgnoreHttpsErrors = playwright.Bool(true)
	}
	return co
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type pwBrowser struct {
	b playwright.Browser
}

func (b *pwBrowser) NewContext(ctx context.Context, opts browser.ContextOptions) (browser.BrowsingContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bc, err := b.b.NewContext(contextOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	return &pwContext{bc: bc}, nil
}

func (b *pwBrowser) Version() string { return b.b.Version() }

func (b *pwBrowser) Close(ctx context.Context) error {
	return b.b.Close()
}

type pwContext struct {
	bc playwright.BrowserContext
}

func (c *pwContext) NewPage(ctx context.Context) (browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := c.bc.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return newPage(p), nil
}

func (c *pwContext) Close(ctx context.Context) error {
	return c.bc.Close()
}
