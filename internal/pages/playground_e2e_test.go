//go:build e2e

// internal/pages/playground_e2e_test.go
package pages_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/uiharness/internal/config"
	"github.com/xkilldash9x/uiharness/internal/harness"
	"github.com/xkilldash9x/uiharness/internal/pages"
)

// loadConfig resolves ./uiharness.yaml and UIHARNESS_* overrides, pointing
// at the public playground unless a base URL is configured.
func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	if cfg.ApplicationCfg.BaseURL == "" || cfg.ApplicationCfg.BaseURL == "https://example.com" {
		cfg.ApplicationCfg.BaseURL = "http://uitestingplayground.com"
	}
	return cfg
}

func TestPlayground_HomePage(t *testing.T) {
	cfg := loadConfig(t)
	for _, engine := range []string{"chromium", "firefox", "webkit"} {
		cfg := *cfg
		cfg.SetBrowserEngine(engine)

		harness.Run(t, engine, &cfg, func(t *testing.T, f *harness.Fixture) {
			home := pages.NewHomePage(f.Page(), f.BaseURL, f.Logger)
			require.NoError(t, home.NavigateToHome(t.Context()))

			title, err := f.Page().Title(t.Context())
			require.NoError(t, err)
			assert.Contains(t, title, "UI Test Automation Playground")
			assert.NoError(t, home.ValidateElementsVisibility(t.Context()))
		})
	}
}

func TestPlayground_AutoWait(t *testing.T) {
	cfg := loadConfig(t)

	harness.Run(t, "enabled after delay", cfg, func(t *testing.T, f *harness.Fixture) {
		aw := pages.NewAutoWaitPage(f.Page(), f.BaseURL, f.Wait, f.Logger).WithTimeout(10 * time.Second)
		ctx := t.Context()

		require.NoError(t, aw.NavigateToAutoWait(ctx))
		require.NoError(t, aw.ChooseElementType(ctx, pages.ElementInput))
		require.NoError(t, aw.CheckOnly(ctx, pages.SettingEnabled))
		require.NoError(t, aw.Apply(ctx, 3))

		assert.NoError(t, aw.ValidateTargetEnabled(ctx))
		assert.NoError(t, aw.ValidateTargetEditable(ctx))
	})

	harness.Run(t, "label visible after delay", cfg, func(t *testing.T, f *harness.Fixture) {
		aw := pages.NewAutoWaitPage(f.Page(), f.BaseURL, f.Wait, f.Logger).WithTimeout(10 * time.Second)
		ctx := t.Context()

		require.NoError(t, aw.NavigateToAutoWait(ctx))
		require.NoError(t, aw.ChooseElementType(ctx, pages.ElementLabel))
		require.NoError(t, aw.CheckOnly(ctx, pages.SettingVisible))
		require.NoError(t, aw.Apply(ctx, 5))

		assert.NoError(t, aw.ValidateVisible(ctx, pages.LabelTextSelector))
	})
}
