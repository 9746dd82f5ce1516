// Package main provides the entry point for the adherence API: cohort
// analytics, notification triage and signed embed URLs over HTTP.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/afikmenashe/adherence-platform/internal/app"
	"github.com/afikmenashe/adherence-platform/internal/config"
	"github.com/afikmenashe/adherence-platform/internal/embed"
	"github.com/afikmenashe/adherence-platform/internal/handlers"
	"github.com/afikmenashe/adherence-platform/internal/router"
	"github.com/afikmenashe/adherence-platform/pkg/metrics"
	"github.com/afikmenashe/adherence-platform/pkg/shared"
)

const serviceName = "adherence-api"

func main() {
	cfg := &config.Config{}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	cfg.LoadSecrets()

	app.SetupLogging(cfg)

	slog.Info("Starting adherence-api",
		"http_port", cfg.HTTPPort,
		"kafka_brokers", cfg.KafkaBrokers,
		"notification_topic", cfg.NotificationTopic,
		"postgres_dsn", shared.MaskDSN(cfg.PostgresDSN),
		"redis_addr", cfg.RedisAddr,
		"embed_client_id", shared.SecretState(cfg.EmbedClientID),
		"embed_secret", shared.SecretState(cfg.EmbedSecret),
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	a, err := app.Open(ctx, cfg, serviceName)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// The API still starts without embed credentials; issue requests fail
	// until both are set.
	issuer := embed.NewIssuer(embed.Config{ClientID: cfg.EmbedClientID, Secret: cfg.EmbedSecret})
	if err := issuer.ConfigError(); err != nil {
		slog.Error("Embed URLs disabled", "error", err)
	}

	opts := []handlers.Option{handlers.WithMetrics(a.Telemetry)}
	if a.Redis != nil {
		opts = append(opts, handlers.WithServiceMetrics(metrics.NewReader(a.Redis)))
	}
	h := handlers.NewHandlers(a.DB, a.Engine, a.Lifecycle, issuer, opts...)

	server := router.NewServer(cfg.HTTPPort, h, a.Telemetry)

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down HTTP server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Error shutting down server", "error", err)
		}
		slog.Info("HTTP server stopped")
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
		a.Close()
		os.Exit(1)
	}

	slog.Info("adherence-api stopped")
}
