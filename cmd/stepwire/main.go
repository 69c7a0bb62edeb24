package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/stepwire/internal/cli"
)

// Interrupts cancel the command context; compilation stops at the next node.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
