// cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/config"
	"github.com/xkilldash9x/uiharness/internal/observability"
)

type contextKey string

const (
	configKey contextKey = "config"
	loggerKey contextKey = "logger"
)

// NewRootCommand builds a fresh command tree. Each call returns independent
// flag state, so tests can execute it repeatedly.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "uiharness",
		Short:         "uiharness drives real browsers for UI tests.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			logger, err := observability.NewConsoleLogger(cfg.Logger())
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger.Debug("Starting uiharness.", zap.String("version", Version))

			ctx := context.WithValue(cmd.Context(), configKey, cfg)
			ctx = context.WithValue(ctx, loggerKey, logger)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			observability.Sync(loggerFrom(cmd.Context()))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./uiharness.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newSmokeCmd(nil),
		newInstallCmd(nil),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command tree under ctx. Errors are printed to stderr and
// returned so main can pick the exit code.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func configFrom(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

func loggerFrom(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.NewNop()
	}
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}
