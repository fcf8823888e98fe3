// Package main is the entry point for the followup webhook service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"followup/internal/backend/todoist"
	"followup/internal/cli"
	"followup/internal/commands"
	"followup/internal/config"
	"followup/internal/service"
)

func main() {
	// Cancel on interrupt so serve can shut down gracefully
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return todoist.New(ctx, cfg)
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
