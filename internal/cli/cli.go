// Package cli provides the command-line interface for StockPilot
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Run starts the CLI application
func Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := newApp()
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()

	if err != nil {
		displayError(os.Stderr, err)
		os.Exit(1)
	}
}
