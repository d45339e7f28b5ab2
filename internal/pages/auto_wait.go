// internal/pages/auto_wait.go
package pages

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/wait"
)

// ElementType is an option of the auto-wait page's element picker.
type ElementType string

const (
	ElementButton   ElementType = "Button"
	ElementInput    ElementType = "Input"
	ElementTextarea ElementType = "Textarea"
	ElementSelect   ElementType = "Select"
	ElementLabel    ElementType = "Label"
)

// Setting is one of the checkboxes that control how the target behaves
// while the apply timer runs.
type Setting string

const (
	SettingVisible     Setting = "Visible"
	SettingEnabled     Setting = "Enabled"
	SettingEditable    Setting = "Editable"
	SettingOnTop       Setting = "On Top"
	SettingNonZeroSize Setting = "Non Zero Size"
)

// Settings lists every setting in page order.
var Settings = []Setting{SettingVisible, SettingEnabled, SettingEditable, SettingOnTop, SettingNonZeroSize}

const (
	elementTypeLabel = "Choose an element type:"

	// TargetSelector is the element under test for every element type.
	TargetSelector = "#target"
	// LabelTextSelector matches the target when the label type is chosen.
	LabelTextSelector = "//*[normalize-space(.)='This is a Label']"
)

// applyDelays are the durations the page offers.
var applyDelays = map[int]bool{3: true, 5: true, 10: true}

// AutoWaitPage drives the playground's auto-wait page. Its Validate methods
// poll with wait.Until rather than relying on backend auto-waiting.
type AutoWaitPage struct {
	BasePage
	waitOpts wait.Options
}

var _ Navigator = (*AutoWaitPage)(nil)

// NewAutoWaitPage creates the page object. waitOpts bounds every Validate call.
func NewAutoWaitPage(page browser.Page, baseURL string, waitOpts wait.Options, logger *zap.Logger) *AutoWaitPage {
	return &AutoWaitPage{BasePage: NewBasePage(page, baseURL, logger), waitOpts: waitOpts}
}

func (a *AutoWaitPage) Navigate(ctx context.Context) error { return a.NavigateToAutoWait(ctx) }

// NavigateToAutoWait opens {baseURL}/autowait.
func (a *AutoWaitPage) NavigateToAutoWait(ctx context.Context) error {
	return a.Goto(ctx, a.URL("autowait"))
}

// ChooseElementType picks the kind of target element.
func (a *AutoWaitPage) ChooseElementType(ctx context.Context, t ElementType) error {
	a.logger.Debug("Choosing element type.", zap.String("type", string(t)))
	if err := a.page.SelectOption(ctx, SelectByLabel(elementTypeLabel), string(t)); err != nil {
		return fmt.Errorf("failed to choose element type %s: %w", t, err)
	}
	return nil
}

// CheckOnly checks the given setting and unchecks all the others.
func (a *AutoWaitPage) CheckOnly(ctx context.Context, only Setting) error {
	for _, s := range Settings {
		if err := a.page.SetChecked(ctx, CheckboxByLabel(string(s)), s == only); err != nil {
			return fmt.Errorf("failed to set %s: %w", s, err)
		}
	}
	return nil
}

// Apply starts the page timer for 3, 5 or 10 seconds.
func (a *AutoWaitPage) Apply(ctx context.Context, seconds int) error {
	if !applyDelays[seconds] {
		return fmt.Errorf("unsupported apply delay %ds: must be 3, 5 or 10", seconds)
	}
	return a.page.Click(ctx, ButtonByName(fmt.Sprintf("Apply %ds", seconds)))
}

// WaitOptions returns the polling bounds used by the Validate methods. A
// caller that applied a delay should allow at least that long.
func (a *AutoWaitPage) WaitOptions() wait.Options { return a.waitOpts }

// WithTimeout returns a copy that polls for up to d.
func (a *AutoWaitPage) WithTimeout(d time.Duration) *AutoWaitPage {
	cp := *a
	cp.waitOpts.Timeout = d
	return &cp
}

// ValidateVisible waits until selector is visible.
func (a *AutoWaitPage) ValidateVisible(ctx context.Context, selector string) error {
	return a.expect(ctx, selector, "visible", a.page.IsVisible)
}

// ValidateEnabled waits until selector is enabled.
func (a *AutoWaitPage) ValidateEnabled(ctx context.Context, selector string) error {
	return a.expect(ctx, selector, "enabled", a.page.IsEnabled)
}

// ValidateEditable waits until selector is editable.
func (a *AutoWaitPage) ValidateEditable(ctx context.Context, selector string) error {
	return a.expect(ctx, selector, "editable", a.page.IsEditable)
}

func (a *AutoWaitPage) ValidateTargetVisible(ctx context.Context) error {
	return a.ValidateVisible(ctx, TargetSelector)
}

func (a *AutoWaitPage) ValidateTargetEnabled(ctx context.Context) error {
	return a.ValidateEnabled(ctx, TargetSelector)
}

func (a *AutoWaitPage) ValidateTargetEditable(ctx context.Context) error {
	return a.ValidateEditable(ctx, TargetSelector)
}

func (a *AutoWaitPage) expect(ctx context.Context, selector, state string, check func(context.Context, string) (bool, error)) error {
	err := wait.Until(ctx, func(ctx context.Context) (bool, error) {
		return check(ctx, selector)
	}, a.waitOpts)
	if err != nil {
		return fmt.Errorf("%s should be %s: %w", selector, state, err)
	}
	return nil
}
