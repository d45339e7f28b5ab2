// internal/browser/cdpdriver/page.go
package cdpdriver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/uiharness/internal/browser"
)

// fallbackTimeout applies when the session never set a default.
const fallbackTimeout = 30 * time.Second

// errNoElement is returned by probes that need an element to exist.
var errNoElement = errors.New("no element matches selector")

// page runs actions on one chromedp tab. Each call gets its own deadline
// derived from the page defaults and is also cancelled with the caller's ctx.
type page struct {
	tab    context.Context
	slowMo time.Duration

	mu                sync.RWMutex
	actionTimeout     time.Duration
	navigationTimeout time.Duration
}

func newPage(tab context.Context, slowMo time.Duration) *page {
	return &page{tab: tab, slowMo: slowMo}
}

func (p *page) SetDefaultTimeout(d time.Duration) {
	p.mu.Lock()
	p.actionTimeout = d
	p.mu.Unlock()
}

func (p *page) SetDefaultNavigationTimeout(d time.Duration) {
	p.mu.Lock()
	p.navigationTimeout = d
	p.mu.Unlock()
}

func (p *page) DefaultTimeout() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.actionTimeout
}

func (p *page) DefaultNavigationTimeout() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.navigationTimeout
}

func (p *page) actionDeadline() time.Duration {
	if d := p.DefaultTimeout(); d > 0 {
		return d
	}
	return fallbackTimeout
}

func (p *page) navigationDeadline() time.Duration {
	if d := p.DefaultNavigationTimeout(); d > 0 {
		return d
	}
	return fallbackTimeout
}

// run executes actions on the tab. Slow motion delays every call, the way
// Playwright's slowMo does.
func (p *page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.slowMo > 0 {
		timer := time.NewTimer(p.slowMo)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	runCtx, cancel := context.WithTimeout(p.tab, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (p *page) Goto(ctx context.Context, url string) error {
	if err := p.run(ctx, p.navigationDeadline(), chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (p *page) URL(ctx context.Context) (string, error) {
	var u string
	err := p.run(ctx, p.actionDeadline(), chromedp.Location(&u))
	return u, err
}

func (p *page) Title(ctx context.Context) (string, error) {
	var title string
	err := p.run(ctx, p.actionDeadline(), chromedp.Title(&title))
	return title, err
}

func (p *page) WaitForLoadState(ctx context.Context, state browser.LoadState) error {
	var ready bool
	timeout := p.navigationDeadline()
	return p.run(ctx, timeout, chromedp.Poll(readyStateExpr(state), &ready,
		chromedp.WithPollingInterval(50*time.Millisecond),
		chromedp.WithPollingTimeout(timeout),
	))
}

func (p *page) probe(ctx context.Context, selector, body string) (probeResult, error) {
	var res probeResult
	err := p.run(ctx, p.actionDeadline(), chromedp.Evaluate(probeScript(selector, body), &res))
	return res, err
}

// IsVisible reports false for a missing element, like Playwright.
func (p *page) IsVisible(ctx context.Context, selector string) (bool, error) {
	res, err := p.probe(ctx, selector, visibleBody)
	if err != nil {
		return false, err
	}
	return res.Found && res.Value, nil
}

func (p *page) IsEnabled(ctx context.Context, selector string) (bool, error) {
	res, err := p.probe(ctx, selector, enabledBody)
	if err != nil {
		return false, err
	}
	if !res.Found {
		return false, fmt.Errorf("%w: %s", errNoElement, selector)
	}
	return res.Value, nil
}

func (p *page) IsEditable(ctx context.Context, selector string) (bool, error) {
	res, err := p.probe(ctx, selector, editableBody)
	if err != nil {
		return false, err
	}
	if !res.Found {
		return false, fmt.Errorf("%w: %s", errNoElement, selector)
	}
	return res.Value, nil
}

func (p *page) TextContents(ctx context.Context, selector string) ([]string, error) {
	var texts []string
	if err := p.run(ctx, p.actionDeadline(), chromedp.Evaluate(textContentsScript(selector), &texts)); err != nil {
		return nil, err
	}
	return texts, nil
}

func (p *page) Click(ctx context.Context, selector string) error {
	return p.run(ctx, p.actionDeadline(),
		chromedp.Click(normalizeSelector(selector), chromedp.BySearch, chromedp.NodeVisible),
	)
}

func (p *page) Fill(ctx context.Context, selector, value string) error {
	sel := normalizeSelector(selector)
	return p.run(ctx, p.actionDeadline(),
		chromedp.SetValue(sel, "", chromedp.BySearch, chromedp.NodeVisible),
		chromedp.SendKeys(sel, value, chromedp.BySearch, chromedp.NodeVisible),
	)
}

func (p *page) SelectOption(ctx context.Context, selector, value string) error {
	var res probeResult
	if err := p.run(ctx, p.actionDeadline(), chromedp.Evaluate(selectScript(selector, value), &res)); err != nil {
		return err
	}
	if !res.Found {
		return fmt.Errorf("%w: %s", errNoElement, selector)
	}
	if !res.Value {
		return fmt.Errorf("no option %q in %s", value, selector)
	}
	return nil
}

func (p *page) SetChecked(ctx context.Context, selector string, checked bool) error {
	var res probeResult
	if err := p.run(ctx, p.actionDeadline(), chromedp.Evaluate(checkedScript(selector, checked), &res)); err != nil {
		return err
	}
	if !res.Found {
		return fmt.Errorf("%w: %s", errNoElement, selector)
	}
	if !res.Value {
		return fmt.Errorf("could not set checked=%t on %s", checked, selector)
	}
	return nil
}

func (p *page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	var buf []byte
	var action chromedp.Action = chromedp.CaptureScreenshot(&buf)
	if fullPage {
		// Quality 100 produces a PNG.
		action = chromedp.FullScreenshot(&buf, 100)
	}
	if err := p.run(ctx, p.actionDeadline(), action); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// ElementScreenshot looks the selector up without waiting, so a missing
// element returns found=false immediately.
func (p *page) ElementScreenshot(ctx context.Context, selector string) ([]byte, bool, error) {
	sel := normalizeSelector(selector)

	var nodes []*cdp.Node
	if err := p.run(ctx, p.actionDeadline(), chromedp.Nodes(sel, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return nil, false, fmt.Errorf("failed to resolve %q: %w", selector, err)
	}
	if len(nodes) == 0 {
		return nil, false, nil
	}

	var buf []byte
	if err := p.run(ctx, p.actionDeadline(), chromedp.Screenshot([]cdp.NodeID{nodes[0].NodeID}, &buf, chromedp.ByNodeID)); err != nil {
		return nil, true, fmt.Errorf("failed to capture element screenshot: %w", err)
	}
	return buf, true, nil
}
