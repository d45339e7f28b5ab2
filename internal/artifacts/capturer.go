// internal/artifacts/capturer.go
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/browser"
)

const (
	// DefaultDir is used when Options.Dir is empty.
	DefaultDir = "Reports/Screenshots"

	captureTimeout  = 15 * time.Second
	timestampLayout = "2006-01-02_15-04-05"
	elementMarker   = "_element"
)

// PageSource hands out the active page. *browser.Session satisfies it; its
// Page method fails once the session is disposed, which is why capture must
// run first.
type PageSource interface {
	Page() (browser.Page, error)
}

// Options configures a Capturer.
type Options struct {
	Dir      string
	FullPage bool
	Fs       afero.Fs
	Clock    func() time.Time
}

// Artifact describes one screenshot written to storage.
type Artifact struct {
	TestName     string
	ElementScope string
	CapturedAt   time.Time
	Path         string
}

// Capturer writes diagnostic screenshots for failed tests.
type Capturer struct {
	pages    PageSource
	dir      string
	fullPage bool
	fs       afero.Fs
	now      func() time.Time
	logger   *zap.Logger
}

// NewCapturer creates a Capturer. The directory is created on first capture.
func NewCapturer(pages PageSource, opts Options, logger *zap.Logger) *Capturer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("artifacts")

	dir := opts.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if expanded, err := homedir.Expand(dir); err == nil {
		dir = expanded
	} else {
		logger.Warn("Could not expand screenshot directory, using it as given.", zap.String("dir", dir), zap.Error(err))
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &Capturer{
		pages:    pages,
		dir:      dir,
		fullPage: opts.FullPage,
		fs:       fs,
		now:      now,
		logger:   logger,
	}
}

// Dir returns the directory artifacts are written to.
func (c *Capturer) Dir() string { return c.dir }

// CaptureOnFailure writes a screenshot of the active page, or of the first
// element matching elementScope when it is not empty. It never fails the
// caller: problems are logged and reported through ok=false. A scoped capture
// of an element that is not in the DOM is skipped silently.
func (c *Capturer) CaptureOnFailure(ctx context.Context, testName, elementScope string) (Artifact, bool) {
	logger := c.logger.With(zap.String("test", testName))
	if elementScope != "" {
		logger = logger.With(zap.String("element", elementScope))
	}

	page, err := c.pages.Page()
	if err != nil {
		logger.Error("Cannot capture screenshot without an active page.", zap.Error(err))
		return Artifact{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	var png []byte
	if elementScope == "" {
		png, err = page.Screenshot(ctx, c.fullPage)
		if err != nil {
			logger.Error("Failed to capture screenshot.", zap.Error(err))
			return Artifact{}, false
		}
	} else {
		var found bool
		png, found, err = page.ElementScreenshot(ctx, elementScope)
		if err != nil {
			logger.Error("Failed to capture element screenshot.", zap.Error(err))
			return Artifact{}, false
		}
		if !found {
			logger.Debug("Element not found, skipping screenshot.")
			return Artifact{}, false
		}
	}

	at := c.now()
	artifact := Artifact{
		TestName:     testName,
		ElementScope: elementScope,
		CapturedAt:   at,
		Path:         filepath.Join(c.dir, FileName(testName, elementScope != "", at)),
	}

	if err := c.write(artifact.Path, png); err != nil {
		logger.Error("Failed to write screenshot.", zap.String("path", artifact.Path), zap.Error(err))
		return Artifact{}, false
	}

	logger.Info("Screenshot saved.", zap.String("path", artifact.Path), zap.Int("bytes", len(png)))
	return artifact, true
}

// write creates the file exclusively so an existing artifact is never replaced.
func (c *Capturer) write(path string, data []byte) error {
	if err := c.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	f, err := c.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FileName builds "{test}[_element]_{yyyy-MM-dd_HH-mm-ss-fff}.png".
func FileName(testName string, scoped bool, at time.Time) string {
	var b strings.Builder
	b.WriteString(SanitizeName(testName))
	if scoped {
		b.WriteString(elementMarker)
	}
	b.WriteByte('_')
	b.WriteString(at.Format(timestampLayout))
	fmt.Fprintf(&b, "-%03d", at.Nanosecond()/int(time.Millisecond))
	b.WriteString(".png")
	return b.String()
}

// SanitizeName makes a test name safe to use as a single path element.
// Subtest names contain "/", which would otherwise create directories.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unnamed"
	}
	out := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ' ' || r == ':' || r == '*' ||
			r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return '_'
		case r < 0x20 || r == 0x7f:
			return '_'
		default:
			return r
		}
	}, name)
	if out == "." || out == ".." {
		return strings.Repeat("_", len(out))
	}
	return out
}
