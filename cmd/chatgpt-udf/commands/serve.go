package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/hpn/hpn-chatgpt-udf/internal/domain"
	"github.com/hpn/hpn-chatgpt-udf/internal/handler"
	"github.com/hpn/hpn-chatgpt-udf/internal/ui"
)

func serveCommand(version string) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the UDF over HTTP",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return serveAction(ctx, cmd, version)
		},
	}
}

func serveAction(ctx context.Context, cmd *cli.Command, version string) error {
	rt, err := bootstrap(cmd, os.Stdout)
	if err != nil {
		return err
	}
	defer rt.closeLog()

	cfg, logger := rt.cfg, rt.logger

	ui.PrintBanner(version)

	logger.Info("configuration loaded",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.String("model", string(rt.udf.Model())),
		slog.Float64("temperature", rt.udf.Temperature()),
		slog.Int("retry_attempts", cfg.UDF.Retry.Attempts),
		slog.Duration("retry_delay", cfg.RetryDelay()),
	)

	source, ok := rt.udf.CredentialSource()
	if !ok {
		// Forward re-resolves on every call, so the key may be added later.
		logger.Warn("no OpenAI credential resolvable yet", slog.String("hint", domain.CredentialHint))
		ui.PrintInfo("No OpenAI key yet: " + domain.CredentialHint)
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handler.NewUDFHandler(rt.udf, handler.WithLogger(logger), handler.WithConsole(true))
	router := handler.NewRouter(h, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("address", addr))
		ui.PrintStartupInfo(cfg.Server.Host, cfg.Server.Port, string(rt.udf.Model()), rt.udf.Temperature(), source)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	ui.PrintShutdown()

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped gracefully",
		slog.String("total_spend", domain.FormatCost(rt.udf.TotalSpend())))
	ui.PrintGoodbye()

	return nil
}
