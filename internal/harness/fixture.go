// internal/harness/fixture.go
package harness

import (
	"context"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/artifacts"
	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/config"
	"github.com/xkilldash9x/uiharness/internal/observability"
	"github.com/xkilldash9x/uiharness/internal/wait"
)

// Fixture is everything a browser test needs: an initialized session, the
// failure capturer bound to it, and the resolved configuration.
type Fixture struct {
	Session  *browser.Session
	Capturer *artifacts.Capturer
	Config   config.Interface
	Logger   *zap.Logger
	BaseURL  string
	// Wait holds the configured polling bounds for page objects.
	Wait wait.Options

	ownsLogger bool
}

// Option customizes how a Fixture is built.
type Option func(*fixtureOptions)

type fixtureOptions struct {
	logger  *zap.Logger
	backend browser.Backend
	fs      afero.Fs
	fields  []zap.Field
}

// WithLogger injects a logger, typically zaptest.NewLogger(t).
func WithLogger(logger *zap.Logger) Option {
	return func(o *fixtureOptions) { o.logger = logger }
}

// WithBackend overrides the backend named in the configuration.
func WithBackend(backend browser.Backend) Option {
	return func(o *fixtureOptions) { o.backend = backend }
}

// WithFs sets the filesystem screenshots are written to.
func WithFs(fs afero.Fs) Option {
	return func(o *fixtureOptions) { o.fs = fs }
}

// withFields adds fields to every log line the fixture and its session write.
func withFields(fields ...zap.Field) Option {
	return func(o *fixtureOptions) { o.fields = append(o.fields, fields...) }
}

// New builds and initializes a Fixture. On error nothing is left running.
func New(ctx context.Context, cfg config.Interface, opts ...Option) (*Fixture, error) {
	var o fixtureOptions
	for _, opt := range opts {
		opt(&o)
	}

	f := &Fixture{
		Config:  cfg,
		BaseURL: cfg.Application().BaseURL,
		Wait: wait.Options{
			Timeout:      cfg.Wait().Timeout(),
			PollInterval: cfg.Wait().PollInterval(),
		},
		Logger: o.logger,
	}
	if f.Logger == nil {
		logger, err := observability.NewConsoleLogger(cfg.Logger())
		if err != nil {
			return nil, fmt.Errorf("failed to build logger: %w", err)
		}
		f.Logger = logger
		f.ownsLogger = true
	}
	f.Logger = f.Logger.With(o.fields...).With(zap.String("environment", cfg.Application().Environment))

	backend := o.backend
	if backend == nil {
		var err error
		if backend, err = ResolveBackend(cfg.Browser(), f.Logger); err != nil {
			f.syncLogger()
			return nil, err
		}
	}

	f.Session = browser.NewSession(browser.SettingsFromConfig(cfg.Browser()), backend, f.Logger)
	f.Capturer = artifacts.NewCapturer(f.Session, artifacts.Options{
		Dir:      cfg.Artifacts().ScreenshotDir,
		FullPage: cfg.Artifacts().FullPage,
		Fs:       o.fs,
	}, f.Logger)

	if err := f.Session.Initialize(ctx); err != nil {
		f.syncLogger()
		return nil, err
	}
	return f, nil
}

// Page returns the session's active page.
func (f *Fixture) Page() browser.Page {
	page, err := f.Session.Page()
	if err != nil {
		// Only reachable after Close, which the fixture owner controls.
		panic(fmt.Sprintf("harness: %v", err))
	}
	return page
}

// Close tears the fixture down. When failed is true a screenshot named after
// testName is captured first, while the page is still alive.
func (f *Fixture) Close(ctx context.Context, testName string, failed bool) {
	if failed {
		f.Capturer.CaptureOnFailure(ctx, testName, "")
	}
	f.Session.Dispose(ctx)
	f.syncLogger()
}

func (f *Fixture) syncLogger() {
	if f.ownsLogger {
		observability.Sync(f.Logger)
	}
}

// Setup creates a Fixture for t and registers its teardown with t.Cleanup.
// A failed initialization fails the test immediately.
func Setup(t testing.TB, cfg config.Interface, opts ...Option) *Fixture {
	t.Helper()

	opts = append(opts[:len(opts):len(opts)], withFields(zap.String("test", t.Name())))
	f, err := New(t.Context(), cfg, opts...)
	if err != nil {
		t.Fatalf("browser session setup failed: %v", err)
	}

	t.Cleanup(func() {
		// t.Context is already cancelled when cleanups run.
		f.Close(context.Background(), t.Name(), t.Failed())
	})
	return f
}

// Run runs fn as a subtest of t with its own Fixture.
func Run(t *testing.T, name string, cfg config.Interface, fn func(t *testing.T, f *Fixture), opts ...Option) bool {
	t.Helper()
	return t.Run(name, func(t *testing.T) {
		fn(t, Setup(t, cfg, opts...))
	})
}
