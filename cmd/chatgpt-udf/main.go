// Package main is the entry point for the chatgpt-udf host.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hpn/hpn-chatgpt-udf/cmd/chatgpt-udf/commands"
	"github.com/hpn/hpn-chatgpt-udf/internal/ui"
)

var version = "dev"

func main() {
	// Cancellation reaches in-flight forwards and the HTTP server.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, os.Args, version); err != nil {
		slog.ErrorContext(ctx, "chatgpt-udf failed", slog.String("error", err.Error()))
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
