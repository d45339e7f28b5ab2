// cmd/version.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the application version.
// Set at build time with: -ldflags "-X github.com/xkilldash9x/uiharness/cmd.Version=1.0.0"
var Version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the uiharness version",
		Args:  cobra.NoArgs,
		// Skip config loading; printing the version must always work.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "uiharness version %s\n", Version)
		},
	}
}
