// internal/harness/backend.go
package harness

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/browser/cdpdriver"
	"github.com/xkilldash9x/uiharness/internal/browser/pwdriver"
	"github.com/xkilldash9x/uiharness/internal/config"
)

// ResolveBackend returns the automation backend named by cfg.Backend. An empty
// name selects Playwright. With cfg.Install set, the Playwright backend
// installs the configured engine before starting.
func ResolveBackend(cfg config.BrowserConfig, logger *zap.Logger) (browser.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case config.BackendPlaywright, "":
		var opts []pwdriver.Option
		if cfg.Install {
			// An unknown engine is reported by the session, so install nothing for it.
			if engine, err := browser.ParseEngine(cfg.Engine); err == nil {
				opts = append(opts, pwdriver.WithInstall(engine))
			}
		}
		return pwdriver.New(logger, opts...), nil
	case config.BackendCDP:
		return cdpdriver.New(logger), nil
	default:
		return nil, &browser.ConfigurationError{
			Field:  "browser.backend",
			Value:  cfg.Backend,
			Reason: fmt.Sprintf("must be one of %s, %s", config.BackendPlaywright, config.BackendCDP),
		}
	}
}
