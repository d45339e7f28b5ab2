// internal/browser/pwdriver/page.go
package pwdriver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/uiharness/internal/browser"
)

// page adapts a Playwright page. Playwright calls take no context, so each
// call checks ctx first and shortens its timeout to ctx's deadline.
type page struct {
	p playwright.Page

	mu                sync.RWMutex
	actionTimeout     time.Duration
	navigationTimeout time.Duration
}

func newPage(p playwright.Page) *page {
	return &page{p: p}
}

func (pg *page) SetDefaultTimeout(d time.Duration) {
	pg.mu.Lock()
	pg.actionTimeout = d
	pg.mu.Unlock()
	pg.p.SetDefaultTimeout(milliseconds(d))
}

func (pg *page) SetDefaultNavigationTimeout(d time.Duration) {
	pg.mu.Lock()
	pg.navigationTimeout = d
	pg.mu.Unlock()
	pg.p.SetDefaultNavigationTimeout(milliseconds(d))
}

func (pg *page) DefaultTimeout() time.Duration {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.actionTimeout
}

func (pg *page) DefaultNavigationTimeout() time.Duration {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.navigationTimeout
}

func (pg *page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := pg.p.Goto(url, playwright.PageGotoOptions{
		Timeout: callTimeout(ctx, pg.DefaultNavigationTimeout()),
	}); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (pg *page) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return pg.p.URL(), nil
}

func (pg *page) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return pg.p.Title()
}

func (pg *page) WaitForLoadState(ctx context.Context, state browser.LoadState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return pg.p.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: callTimeout(ctx, pg.DefaultNavigationTimeout()),
	})
}

func loadState(state browser.LoadState) *playwright.LoadState {
	switch state {
	case browser.LoadStateDOMContentLoaded:
		return playwright.LoadStateDomcontentloaded
	case browser.LoadStateNetworkIdle:
		return playwright.LoadStateNetworkidle
	default:
		return playwright.LoadStateLoad
	}
}

func (pg *page) IsVisible(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return pg.p.Locator(selector).First().IsVisible()
}

func (pg *page) IsEnabled(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return pg.p.Locator(selector).First().IsEnabled(playwright.LocatorIsEnabledOptions{
		Timeout: callTimeout(ctx, pg.DefaultTimeout()),
	})
}

func (pg *page) IsEditable(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return pg.p.Locator(selector).First().IsEditable(playwright.LocatorIsEditableOptions{
		Timeout: callTimeout(ctx, pg.DefaultTimeout()),
	})
}

func (pg *page) TextContents(ctx context.Context, selector string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pg.p.Locator(selector).AllTextContents()
}

func (pg *page) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return pg.p.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: callTimeout(ctx, pg.DefaultTimeout()),
	})
}

func (pg *page) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return pg.p.Locator(selector).First().Fill(value, playwright.LocatorFillOptions{
		Timeout: callTimeout(ctx, pg.DefaultTimeout()),
	})
}

func (pg *page) SelectOption(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	values := []string{value}
	_, err := pg.p.Locator(selector).First().SelectOption(playwright.SelectOptionValues{Values: &values}, playwright.LocatorSelectOptionOptions{
		Timeout: callTimeout(ctx, pg.DefaultTimeout()),
	})
	return err
}

func (pg *page) SetChecked(ctx context.Context, selector string, checked bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return pg.p.Locator(selector).First().SetChecked(checked, playwright.LocatorSetCheckedOptions{
		Timeout: callTimeout(ctx, pg.DefaultTimeout()),
	})
}

func (pg *page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pg.p.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
		Type:     playwright.ScreenshotTypePng,
		Timeout:  callTimeout(ctx, pg.DefaultTimeout()),
	})
}

// ElementScreenshot captures the first match. Count does not wait, so a
// missing element is reported immediately instead of after the action timeout.
func (pg *page) ElementScreenshot(ctx context.Context, selector string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	loc := pg.p.Locator(selector)
	n, err := loc.Count()
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve %q: %w", selector, err)
	}
	if n == 0 {
		return nil, false, nil
	}
	png, err := loc.First().Screenshot(playwright.LocatorScreenshotOptions{
		Type:    playwright.ScreenshotTypePng,
		Timeout: callTimeout(ctx, pg.DefaultTimeout()),
	})
	if err != nil {
		return nil, true, err
	}
	return png, true, nil
}

// callTimeout returns the per-call timeout in milliseconds when ctx expires
// before def would, and nil to keep the page default otherwise.
func callTimeout(ctx context.Context, def time.Duration) *float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	remaining := time.Until(deadline)
	if def > 0 && remaining >= def {
		return nil
	}
	if remaining < time.Millisecond {
		remaining = time.Millisecond
	}
	return playwright.Float(milliseconds(remaining))
}
