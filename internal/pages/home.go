// internal/pages/home.go
package pages

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/browser"
)

// HomeTitle is the main heading of the playground home page.
const HomeTitle = "UI Test Automation Playground"

// HomeLinks are the navigation links the home page must show.
var HomeLinks = []string{
	"Home",
	"Resources",
	"Dynamic ID",
	"Class Attribute",
	"Hidden Layers",
	"Load Delay",
	"AJAX Data",
	"Client Side Delay",
	"Click",
	"Text Input",
	"Scrollbars",
	"Dynamic Table",
	"Verify Text",
	"Progress Bar",
	"Visibility",
	"Sample App",
	"Mouse Over",
	"Non-Breaking Space",
	"Overlapped Element",
	"Shadow DOM",
	"Alerts",
}

// HomePage is the playground landing page.
type HomePage struct {
	BasePage
}

var _ Navigator = (*HomePage)(nil)

func NewHomePage(page browser.Page, baseURL string, logger *zap.Logger) *HomePage {
	return &HomePage{BasePage: NewBasePage(page, baseURL, logger)}
}

func (h *HomePage) Navigate(ctx context.Context) error { return h.NavigateToHome(ctx) }

// NavigateToHome opens {baseURL}/home.
func (h *HomePage) NavigateToHome(ctx context.Context) error {
	return h.Goto(ctx, h.URL("home"))
}

// ValidateElementsVisibility checks every home link and the page heading.
// All elements are checked; the returned error lists each one that is not visible.
func (h *HomePage) ValidateElementsVisibility(ctx context.Context) error {
	var errs error
	for _, name := range HomeLinks {
		errs = multierr.Append(errs, h.expectVisible(ctx, LinkByName(name), name+" link"))
	}
	errs = multierr.Append(errs, h.expectVisible(ctx, HeadingByName(HomeTitle), "Page heading"))
	return errs
}

func (h *HomePage) expectVisible(ctx context.Context, selector, what string) error {
	visible, err := h.page.IsVisible(ctx, selector)
	if err != nil {
		return fmt.Errorf("%s visibility could not be checked: %w", what, err)
	}
	if !visible {
		return fmt.Errorf("%s should be visible", what)
	}
	return nil
}
