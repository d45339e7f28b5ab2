// internal/browser/interface.go
package browser

import (
	"context"
	"time"
)

// LoadState names a page load milestone understood by every backend.
type LoadState string

const (
	LoadStateLoad             LoadState = "load"
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

// Viewport is the page size in CSS pixels. A zero value leaves the backend default.
type Viewport struct {
	Width  int
	Height int
}

// LaunchOptions configures a browser process.
type LaunchOptions struct {
	Headless bool
	SlowMo   time.Duration
	Args     []string
}

// ContextOptions configures an isolated browsing context.
type ContextOptions struct {
	Viewport          Viewport
	IgnoreHTTPSErrors bool
}

// Backend is an automation library able to drive one or more engines.
type Backend interface {
	Name() string
	Supports(engine EngineKind) bool
	// Start acquires the engine handle. Nothing is launched yet.
	Start(ctx context.Context) (Driver, error)
}

// Driver is the engine handle. It launches browser processes and is released last.
type Driver interface {
	Launch(ctx context.Context, engine EngineKind, opts LaunchOptions) (Browser, error)
	Stop(ctx context.Context) error
}

// Browser is a running browser process.
type Browser interface {
	NewContext(ctx context.Context, opts ContextOptions) (BrowsingContext, error)
	Version() string
	Close(ctx context.Context) error
}

// BrowsingContext holds the cookie and storage boundary for its pages.
type BrowsingContext interface {
	NewPage(ctx context.Context) (Page, error)
	Close(ctx context.Context) error
}

// Page is a single tab. Selectors are CSS or XPath (prefixed with "xpath=" or
// starting with "//"). Actions inherit the default timeouts set on the page.
type Page interface {
	SetDefaultTimeout(d time.Duration)
	SetDefaultNavigationTimeout(d time.Duration)
	DefaultTimeout() time.Duration
	DefaultNavigationTimeout() time.Duration

	Goto(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	WaitForLoadState(ctx context.Context, state LoadState) error

	IsVisible(ctx context.Context, selector string) (bool, error)
	IsEnabled(ctx context.Context, selector string) (bool, error)
	IsEditable(ctx context.Context, selector string) (bool, error)
	TextContents(ctx context.Context, selector string) ([]string, error)

	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	SelectOption(ctx context.Context, selector, value string) error
	SetChecked(ctx context.Context, selector string, checked bool) error

	// Screenshot returns a PNG of the viewport, or of the whole page when fullPage is set.
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	// ElementScreenshot returns a PNG of the first element matching selector.
	// found is false, with a nil error, when nothing matches.
	ElementScreenshot(ctx context.Context, selector string) (png []byte, found bool, err error)
}
