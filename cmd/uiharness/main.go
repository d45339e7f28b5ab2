// cmd/uiharness/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/uiharness/cmd"
)

// Allows mocking os.Exit in tests.
var osExit = os.Exit

func main() {
	// Interrupts cancel the context so open sessions are disposed before exit.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	osExit(exitCode(cmd.Execute(ctx)))
}

func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	default:
		return 1
	}
}
