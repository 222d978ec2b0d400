package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"qkd-voting-backend/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Command().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "command failed: %v\n", err)
		stop()
		os.Exit(1)
	}
}
