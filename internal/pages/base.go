// internal/pages/base.go
package pages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/browser"
)

// Navigator is the contract every page object offers: it can bring the
// browser to itself, and it exposes the page it drives.
type Navigator interface {
	Navigate(ctx context.Context) error
	Page() browser.Page
}

// BasePage holds what every page object shares: the active page, the
// application base URL and a logger.
type BasePage struct {
	page    browser.Page
	baseURL string
	logger  *zap.Logger
}

// NewBasePage panics on a nil page: a page object without a page is a
// programming error, not a runtime condition.
func NewBasePage(page browser.Page, baseURL string, logger *zap.Logger) BasePage {
	if page == nil {
		panic("pages: nil page")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return BasePage{
		page:    page,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Named("pages"),
	}
}

func (b *BasePage) Page() browser.Page { return b.page }

// URL joins path onto the base URL.
func (b *BasePage) URL(path string) string {
	if path == "" {
		return b.baseURL
	}
	return b.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Goto navigates to an absolute URL.
func (b *BasePage) Goto(ctx context.Context, url string) error {
	b.logger.Info("Navigating to page.", zap.String("url", url))
	if err := b.page.Goto(ctx, url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// AllText returns the non-empty text content of every element matching selector.
func (b *BasePage) AllText(ctx context.Context, selector string) ([]string, error) {
	b.logger.Debug("Getting all text from elements.", zap.String("selector", selector))
	texts, err := b.page.TextContents(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("failed to read text from %s: %w", selector, err)
	}
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// WaitForLoadState waits for state, or for network idle when state is empty.
func (b *BasePage) WaitForLoadState(ctx context.Context, state browser.LoadState) error {
	if state == "" {
		state = browser.LoadStateNetworkIdle
	}
	b.logger.Debug("Waiting for load state.", zap.String("state", string(state)))
	return b.page.WaitForLoadState(ctx, state)
}
