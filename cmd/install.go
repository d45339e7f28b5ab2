// cmd/install.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/browser/pwdriver"
)

// installer downloads browsers for the given engines.
type installer func(ctx context.Context, logger *zap.Logger, engines ...browser.EngineKind) error

func newInstallCmd(install installer) *cobra.Command {
	if install == nil {
		install = pwdriver.Install
	}
	var engineNames []string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the Playwright driver and browsers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engines, err := parseEngines(engineNames)
			if err != nil {
				return err
			}
			logger := loggerFrom(cmd.Context())
			if err := install(cmd.Context(), logger, engines...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %d browser(s).\n", len(engines))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&engineNames, "engines", "e", []string{"chromium", "firefox", "webkit"}, "engines to install")
	return cmd
}

// parseEngines resolves engine names, dropping duplicates.
func parseEngines(names []string) ([]browser.EngineKind, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one engine is required")
	}
	seen := make(map[browser.EngineKind]bool, len(names))
	engines := make([]browser.EngineKind, 0, len(names))
	for _, name := range names {
		engine, err := browser.ParseEngine(name)
		if err != nil {
			return nil, err
		}
		if !seen[engine] {
			seen[engine] = true
			engines = append(engines, engine)
		}
	}
	return engines, nil
}
