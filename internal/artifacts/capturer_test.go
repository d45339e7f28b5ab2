// internal/artifacts/capturer_test.go
package artifacts_test

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
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

	"github.com/xkilldash9x/uiharness/internal/artifacts"
	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/mocks"
)

var fakePNG = []byte("\x89PNG\r\n\x1a\nfake")

// fixedClock returns 2024-03-05 14:07:09.042 local time.
func fixedClock() time.Time {
	return time.Date(2024, time.March, 5, 14, 7, 9, 42*int(time.Millisecond), time.Local)
}

// pageSource is a PageSource backed by a fixed page or error.
type pageSource struct {
	page browser.Page
	err  error
}

func (p pageSource) Page() (browser.Page, error) { return p.page, p.err }

var namePattern = regexp.MustCompile(`^[^/\\]+(_element)?_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}-\d{3}\.png$`)

func TestCaptureOnFailure(t *testing.T) {
	t.Run("Full page", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		page := new(mocks.MockPage)
		page.On("Screenshot", mock.Anything, false).Return(fakePNG, nil).Once()

		c := artifacts.NewCapturer(pageSource{page: page}, artifacts.Options{Dir: "Reports/Screenshots", Fs: fs, Clock: fixedClock}, zaptest.NewLogger(t))
		art, ok := c.CaptureOnFailure(context.Background(), "testX", "")
		require.True(t, ok)

		assert.Equal(t, filepath.Join("Reports/Screenshots", "testX_2024-03-05_14-07-09-042.png"), art.Path)
		assert.Equal(t, "testX", art.TestName)
		assert.Empty(t, art.ElementScope)
		assert.Equal(t, fixedClock(), art.CapturedAt)

		entries, err := afero.ReadDir(fs, "Reports/Screenshots")
		require.NoError(t, err)
		require.Len(t, entries, 1, "exactly one artifact")
		assert.Regexp(t, namePattern, entries[0].Name())

		data, err := afero.ReadFile(fs, art.Path)
		require.NoError(t, err)
		assert.Equal(t, fakePNG, data)
		page.AssertExpectations(t)
	})

	t.Run("Full page option", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		page := new(mocks.MockPage)
		page.On("Screenshot", mock.Anything, true).Return(fakePNG, nil).Once()

		c := artifacts.NewCapturer(pageSource{page: page}, artifacts.Options{Dir: "shots", FullPage: true, Fs: fs, Clock: fixedClock}, zaptest.NewLogger(t))
		_, ok := c.CaptureOnFailure(context.Background(), "testX", "")
		assert.True(t, ok)
		page.AssertExpectations(t)
	})

	t.Run("Element scope", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		page := new(mocks.MockPage)
		page.On("ElementScreenshot", mock.Anything, "#login").Return(fakePNG, true, nil).Once()

		c := artifacts.NewCapturer(pageSource{page: page}, artifacts.Options{Dir: "shots", Fs: fs, Clock: fixedClock}, zaptest.NewLogger(t))
		art, ok := c.CaptureOnFailure(context.Background(), "TestLogin", "#login")
		require.True(t, ok)

		assert.Equal(t, filepath.Join("shots", "TestLogin_element_2024-03-05_14-07-09-042.png"), art.Path)
		assert.Equal(t, "#login", art.ElementScope)
		exists, err := afero.Exists(fs, art.Path)
		require.NoError(t, err)
		assert.True(t, exists)
		page.AssertNotCalled(t, "Screenshot", mock.Anything, mock.Anything)
	})

	t.Run("Missing element is skipped silently", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		core, logs := observer.New(zapcore.DebugLevel)
		page := new(mocks.MockPage)
		page.On("ElementScreenshot", mock.Anything, "#nope").Return(nil, false, nil).Once()

		c := artifacts.NewCapturer(pageSource{page: page}, artifacts.Options{Dir: "shots", Fs: fs, Clock: fixedClock}, zap.New(core))

		var ok bool
		assert.NotPanics(t, func() {
			_, ok = c.CaptureOnFailure(context.Background(), "testX", "#nope")
		})
		assert.False(t, ok)

		exists, err := afero.DirExists(fs, "shots")
		require.NoError(t, err)
		assert.False(t, exists, "no artifact and no directory should be created")
		assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
		assert.Equal(t, 1, logs.FilterMessage("Element not found, skipping screenshot.").Len())
	})

	t.Run("Subtest names stay in one directory", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		page := new(mocks.MockPage)
		page.On("Screenshot", mock.Anything, false).Return(fakePNG, nil)

		c := artifacts.NewCapturer(pageSource{page: page}, artifacts.Options{Dir: "shots", Fs: fs, Clock: fixedClock}, zaptest.NewLogger(t))
		art, ok := c.CaptureOnFailure(context.Background(), "TestHome/links visible", "")
		require.True(t, ok)
		assert.Equal(t, filepath.Join("shots", "TestHome_links_visible_2024-03-05_14-07-09-042.png"), art.Path)
	})

	t.Run("Default directory", func(t *testing.T) {
		c := artifacts.NewCapturer(pageSource{}, artifacts.Options{Fs: afero.NewMemMapFs()}, nil)
		assert.Equal(t, artifacts.DefaultDir, c.Dir())
	})
}

func TestCaptureOnFailure_NeverFails(t *testing.T) {
	t.Run("No active page", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		stateErr := &browser.InvalidSessionStateError{Op: "Page", State: browser.StateClosed}
		c := artifacts.NewCapturer(pageSource{err: stateErr}, artifacts.Options{Fs: afero.NewMemMapFs()}, zap.New(core))

		_, ok := c.CaptureOnFailure(context.Background(), "testX", "")
		assert.False(t, ok)
		assert.Equal(t, 1, logs.FilterMessage("Cannot capture screenshot without an active page.").Len())
	})

	t.Run("Screenshot error", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		page := new(mocks.MockPage)
		page.On("Screenshot", mock.Anything, false).Return(nil, errors.New("target closed"))

		c := artifacts.NewCapturer(pageSource{page: page}, artifacts.Options{Fs: afero.NewMemMapFs()}, zap.New(core))
		_, ok := c.CaptureOnFailure(context.Background(), "testX", "")
		assert.False(t, ok)
		assert.Equal(t, 1, logs.FilterMessage("Failed to capture screenshot.").Len())
	})

	t.Run("Element screenshot error", func(t *testing.T) {
		page := new(mocks.MockPage)
		page.On("ElementScreenshot", mock.Anything, "#x").Return(nil, true, errors.New("detached"))

		c := artifacts.NewCapturer(pageSource{page: page}, artifacts.Options{Fs: afero.NewMemMapFs()}, zaptest.NewLogger(t))
		_, ok := c.CaptureOnFailure(context.Background(), "testX", "#x")
		assert.False(t, ok)
	})

	t.Run("Storage write failure", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		page := new(mocks.MockPage)
		page.On("Screenshot", mock.Anything, false).Return(fakePNG, nil)

		readOnly := afero.NewReadOnlyFs(afero.NewMemMapFs())
		c := artifacts.NewCapturer(pageSource{page: page}, artifacts.Options{Dir: "shots", Fs: readOnly, Clock: fixedClock}, zap.New(core))

		var ok bool
		assert.NotPanics(t, func() {
			_, ok = c.CaptureOnFailure(context.Background(), "testX", "")
		})
		assert.False(t, ok)
		assert.Equal(t, 1, logs.FilterMessage("Failed to write screenshot.").Len())
	})

	t.Run("Existing file is not overwritten", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		page := new(mocks.MockPage)
		page.On("Screenshot", mock.Anything, false).Return(fakePNG, nil)

		c := artifacts.NewCapturer(pageSource{page: page}, artifacts.Options{Dir: "shots", Fs: fs, Clock: fixedClock}, zaptest.NewLogger(t))
		first, ok := c.CaptureOnFailure(context.Background(), "testX", "")
		require.True(t, ok)
		require.NoError(t, afero.WriteFile(fs, first.Path, []byte("original"), 0o644))

		_, ok = c.CaptureOnFailure(context.Background(), "testX", "")
		assert.False(t, ok)
		data, err := afero.ReadFile(fs, first.Path)
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), data)
	})
}

func TestFileName(t *testing.T) {
	at := time.Date(2025, time.December, 31, 23, 59, 58, 7*int(time.Millisecond), time.UTC)
	assert.Equal(t, "Checkout_2025-12-31_23-59-58-007.png", artifacts.FileName("Checkout", false, at))
	assert.Equal(t, "Checkout_element_2025-12-31_23-59-58-007.png", artifacts.FileName("Checkout", true, at))

	// Milliseconds distinguish captures within the same second.
	later := at.Add(993 * time.Millisecond)
	assert.NotEqual(t, artifacts.FileName("Checkout", false, at), artifacts.FileName("Checkout", false, later))
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"TestHome":               "TestHome",
		"TestHome/links visible": "TestHome_links_visible",
		`a\b:c*d?e"f<g>h|i`:      "a_b_c_d_e_f_g_h_i",
		"   ":                    "unnamed",
		"":                       "unnamed",
		"..":                     "__",
		"line\nbreak":            "line_break",
	}
	for in, want := range tests {
		assert.Equal(t, want, artifacts.SanitizeName(in), "input %q", in)
	}
}
