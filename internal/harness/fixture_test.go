// internal/harness/fixture_test.go
package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/browser/cdpdriver"
	"github.com/xkilldash9x/uiharness/internal/browser/pwdriver"
	"github.com/xkilldash9x/uiharness/internal/config"
	"github.com/xkilldash9x/uiharness/internal/mocks"
)

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.ApplicationCfg.BaseURL = "http://uitestingplayground.com"
	cfg.ArtifactsCfg.ScreenshotDir = "/reports/shots"
	return cfg
}

// orderedStack wires a stack whose capture and teardown calls are recorded in order.
func orderedStack(order *[]string) *mocks.Stack {
	var mu sync.Mutex
	record := func(name string) func(mock.Arguments) {
		return func(mock.Arguments) {
			mu.Lock()
			defer mu.Unlock()
			*order = append(*order, name)
		}
	}

	s := mocks.NewStack("mock").ExpectInitialize(browser.Chromium)
	s.Page.On("Screenshot", mock.Anything, false).Run(record("screenshot")).Return([]byte("png"), nil).Maybe()
	s.Context.On("Close", mock.Anything).Run(record("close context")).Return(nil).Once()
	s.Browser.On("Close", mock.Anything).Run(record("close browser")).Return(nil).Once()
	s.Driver.On("Stop", mock.Anything).Run(record("stop driver")).Return(nil).Once()
	return s
}

func TestNew(t *testing.T) {
	t.Run("builds a ready fixture from configuration", func(t *testing.T) {
		var order []string
		stack := orderedStack(&order)

		f, err := New(context.Background(), testConfig(),
			WithBackend(stack.Backend), WithLogger(zaptest.NewLogger(t)), WithFs(afero.NewMemMapFs()))
		require.NoError(t, err)

		assert.Equal(t, browser.StateReady, f.Session.State())
		assert.Equal(t, "http://uitestingplayground.com", f.BaseURL)
		assert.Equal(t, 5*time.Second, f.Wait.Timeout)
		assert.Equal(t, 100*time.Millisecond, f.Wait.PollInterval)
		assert.Equal(t, "/reports/shots", f.Capturer.Dir())
		assert.Same(t, stack.Page, f.Page())

		f.Close(context.Background(), "TestNew", false)
		assert.Equal(t, browser.StateClosed, f.Session.State())
		assert.Equal(t, []string{"close context", "close browser", "stop driver"}, order)
		stack.Page.AssertNotCalled(t, "Screenshot", mock.Anything, mock.Anything)
	})

	t.Run("reads through the config interface", func(t *testing.T) {
		defaults := config.NewDefaultConfig()
		cfg := new(mocks.MockConfig)
		cfg.On("Application").Return(config.ApplicationConfig{BaseURL: "http://localhost:8080"})
		cfg.On("Wait").Return(config.WaitConfig{TimeoutMs: 250, PollIntervalMs: 25})
		cfg.On("Browser").Return(defaults.Browser())
		cfg.On("Artifacts").Return(config.ArtifactsConfig{ScreenshotDir: "/shots"})

		var order []string
		stack := orderedStack(&order)
		f, err := New(context.Background(), cfg, WithBackend(stack.Backend), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		defer f.Close(context.Background(), "", false)

		assert.Equal(t, "http://localhost:8080", f.BaseURL)
		assert.Equal(t, 250*time.Millisecond, f.Wait.Timeout)
		assert.Equal(t, 25*time.Millisecond, f.Wait.PollInterval)
		cfg.AssertNotCalled(t, "Logger")
	})

	t.Run("an unknown engine fails without starting anything", func(t *testing.T) {
		cfg := testConfig()
		cfg.SetBrowserEngine("opera")
		stack := mocks.NewStack("mock")

		f, err := New(context.Background(), cfg, WithBackend(stack.Backend), WithLogger(zaptest.NewLogger(t)))
		require.Error(t, err)
		assert.Nil(t, f)
		assert.ErrorIs(t, err, browser.ErrConfiguration)
		stack.Backend.AssertNotCalled(t, "Start", mock.Anything)
	})

	t.Run("an unknown backend is a configuration error", func(t *testing.T) {
		cfg := testConfig()
		cfg.BrowserCfg.Backend = "selenium"

		_, err := New(context.Background(), cfg, WithLogger(zaptest.NewLogger(t)))
		assert.ErrorIs(t, err, browser.ErrConfiguration)
	})
}

func TestClose_CapturesBeforeDispose(t *testing.T) {
	var order []string
	stack := orderedStack(&order)
	fs := afero.NewMemMapFs()

	f, err := New(context.Background(), testConfig(),
		WithBackend(stack.Backend), WithLogger(zaptest.NewLogger(t)), WithFs(fs))
	require.NoError(t, err)

	f.Close(context.Background(), "TestLogin/invalid password", true)

	assert.Equal(t, []string{"screenshot", "close context", "close browser", "stop driver"}, order)
	entries, err := afero.ReadDir(fs, "/reports/shots")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^TestLogin_invalid_password_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}-\d{3}\.png$`, entries[0].Name())
	stack.AssertExpectations(t)
}

func TestSetup(t *testing.T) {
	t.Run("registers teardown with the test", func(t *testing.T) {
		var order []string
		stack := orderedStack(&order)

		t.Run("inner", func(t *testing.T) {
			f := Setup(t, testConfig(), WithBackend(stack.Backend), WithLogger(zaptest.NewLogger(t)))
			assert.Equal(t, browser.StateReady, f.Session.State())
			assert.Empty(t, order)
		})

		assert.Equal(t, []string{"close context", "close browser", "stop driver"}, order)
		stack.AssertExpectations(t)
	})

	t.Run("fails the test when initialization fails", func(t *testing.T) {
		stack := mocks.NewStack("mock")
		stack.Backend.On("Supports", browser.Chromium).Return(true)
		stack.Backend.On("Start", mock.Anything).Return(nil, errors.New("driver missing"))

		tb := &recordingTB{TB: t}
		done := make(chan struct{})
		go func() {
			defer close(done)
			Setup(tb, testConfig(), WithBackend(stack.Backend), WithLogger(zaptest.NewLogger(t)))
		}()
		<-done

		assert.Contains(t, tb.fatal, "browser session setup failed")
		assert.Contains(t, tb.fatal, "driver missing")
		assert.Empty(t, tb.cleanups)
	})

	t.Run("a failed test is captured before teardown", func(t *testing.T) {
		var order []string
		stack := orderedStack(&order)
		fs := afero.NewMemMapFs()

		tb := &recordingTB{TB: t}
		f := Setup(tb, testConfig(), WithBackend(stack.Backend), WithLogger(zaptest.NewLogger(t)), WithFs(fs))
		require.Len(t, tb.cleanups, 1)

		tb.failed = true
		tb.runCleanups()

		assert.Equal(t, []string{"screenshot", "close context", "close browser", "stop driver"}, order)
		assert.Equal(t, browser.StateClosed, f.Session.State())
		entries, err := afero.ReadDir(fs, "/reports/shots")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, strings.HasPrefix(entries[0].Name(), "recording_"))
		stack.AssertExpectations(t)
	})

	t.Run("a passing test is not captured", func(t *testing.T) {
		var order []string
		stack := orderedStack(&order)

		tb := &recordingTB{TB: t}
		Setup(tb, testConfig(), WithBackend(stack.Backend), WithLogger(zaptest.NewLogger(t)))
		tb.runCleanups()

		assert.Equal(t, []string{"close context", "close browser", "stop driver"}, order)
	})

	t.Run("session logs carry the test name and environment", func(t *testing.T) {
		var order []string
		stack := orderedStack(&order)
		core, logs := observer.New(zapcore.DebugLevel)

		tb := &recordingTB{TB: t}
		Setup(tb, testConfig(), WithBackend(stack.Backend), WithLogger(zap.New(core)))
		tb.runCleanups()

		entries := logs.FilterMessage("Browser session initialized.").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "recording", fields["test"])
		assert.Equal(t, "Staging", fields["environment"])
		assert.NotEmpty(t, fields["session_id"])
	})
}

func TestRun(t *testing.T) {
	var order []string
	stack := orderedStack(&order)

	var ran bool
	ok := Run(t, "playground", testConfig(), func(t *testing.T, f *Fixture) {
		ran = true
		assert.Equal(t, "http://uitestingplayground.com", f.BaseURL)
	}, WithBackend(stack.Backend), WithLogger(zaptest.NewLogger(t)))

	assert.True(t, ok)
	assert.True(t, ran)
	assert.Len(t, order, 3)
}

func TestResolveBackend(t *testing.T) {
	logger := zaptest.NewLogger(t)

	b, err := ResolveBackend(config.BrowserConfig{Backend: config.BackendPlaywright}, logger)
	require.NoError(t, err)
	assert.IsType(t, &pwdriver.Backend{}, b)

	b, err = ResolveBackend(config.BrowserConfig{}, logger)
	require.NoError(t, err)
	assert.Equal(t, config.BackendPlaywright, b.Name())

	b, err = ResolveBackend(config.BrowserConfig{Backend: config.BackendCDP, Engine: "chromium"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &cdpdriver.Backend{}, b)
	assert.False(t, b.Supports(browser.Firefox))

	b, err = ResolveBackend(config.BrowserConfig{Backend: config.BackendPlaywright, Engine: "opera", Install: true}, logger)
	require.NoError(t, err, "engine errors are reported by the session")
	assert.NotNil(t, b)

	_, err = ResolveBackend(config.BrowserConfig{Backend: "selenium"}, logger)
	var cfgErr *browser.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "browser.backend", cfgErr.Field)
	assert.Equal(t, "selenium", cfgErr.Value)
}

// recordingTB captures Fatalf and cleanups instead of handing them to the
// enclosing test.
type recordingTB struct {
	testing.TB
	fatal    string
	failed   bool
	cleanups []func()
}

func (r *recordingTB) Failed() bool { return r.failed }

// runCleanups runs registered cleanups last-in first-out, as testing does.
func (r *recordingTB) runCleanups() {
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		r.cleanups[i]()
	}
	r.cleanups = nil
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Name() string { return "recording" }

func (r *recordingTB) Context() context.Context { return context.Background() }

func (r *recordingTB) Cleanup(fn func()) { r.cleanups = append(r.cleanups, fn) }

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.fatal = fmt.Sprintf(format, args...)
	runtime.Goexit()
}
