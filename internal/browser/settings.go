// internal/browser/settings.go
package browser

import (
	"time"

	"github.com/xkilldash9x/uiharness/internal/config"
)

// Settings is the subset of configuration a session consumes. Engine is kept
// as the raw configured string and is resolved by Initialize.
type Settings struct {
	Engine            string
	Backend           string
	Headless          bool
	SlowMo            time.Duration
	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
	Args              []string
	Viewport          Viewport
	IgnoreHTTPSErrors bool
}

// SettingsFromConfig maps the browser section of the configuration.
func SettingsFromConfig(cfg config.BrowserConfig) Settings {
	return Settings{
		Engine:            cfg.Engine,
		Backend:           cfg.Backend,
		Headless:          cfg.Headless,
		SlowMo:            cfg.SlowMo(),
		ActionTimeout:     cfg.ActionTimeout(),
		NavigationTimeout: cfg.NavigationTimeout(),
		Args:              append([]string(nil), cfg.Args...),
		Viewport:          Viewport{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height},
		IgnoreHTTPSErrors: cfg.IgnoreHTTPSErrors,
	}
}

func (s Settings) launchOptions() LaunchOptions {
	return LaunchOptions{Headless: s.Headless, SlowMo: s.SlowMo, Args: s.Args}
}

func (s Settings) contextOptions() ContextOptions {
	return ContextOptions{Viewport: s.Viewport, IgnoreHTTPSErrors: s.IgnoreHTTPSErrors}
}

// validate checks the timing values. Zero timeouts are rejected because
// Playwright treats 0 as "wait forever".
func (s Settings) validate() error {
	switch {
	case s.SlowMo < 0:
		return &ConfigurationError{Field: "browser.slow_mo_ms", Value: s.SlowMo.String(), Reason: "must not be negative"}
	case s.ActionTimeout <= 0:
		return &ConfigurationError{Field: "browser.action_timeout_ms", Value: s.ActionTimeout.String(), Reason: "must be positive"}
	case s.NavigationTimeout <= 0:
		return &ConfigurationError{Field: "browser.navigation_timeout_ms", Value: s.NavigationTimeout.String(), Reason: "must be positive"}
	}
	return nil
}
