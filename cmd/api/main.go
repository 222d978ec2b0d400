package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"qkd-voting-backend/api"
	"qkd-voting-backend/config"
)

// Serves the HTTP API only. The config path is read from QKD_VOTING_CONFIG.
func main() {
	cfg, err := config.Load(os.Getenv("QKD_VOTING_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	server, err := api.Build(cfg, log)
	if err != nil {
		log.Fatal("failed to build server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
