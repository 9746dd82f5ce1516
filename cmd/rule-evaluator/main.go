// Package main provides the entry point for the rule evaluator, which runs
// the rule catalog for every client on a cron schedule.
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
	"github.com/afikmenashe/adherence-platform/internal/scheduler"
	"github.com/afikmenashe/adherence-platform/pkg/shared"
)

const serviceName = "rule-evaluator"

func main() {
	cfg := &config.Config{}
	cfg.RegisterFlags(flag.CommandLine)
	metricsPort := flag.String("metrics-port", shared.GetEnvOrDefault("METRICS_PORT", "9091"), "Port for /metrics and /health")
	once := flag.Bool("once", false, "Run a single evaluation pass and exit")
	flag.Parse()

	app.SetupLogging(cfg)

	slog.Info("Starting rule-evaluator",
		"schedule", cfg.EvaluationSchedule,
		"concurrency", cfg.EvaluationConcurrency,
		"kafka_brokers", cfg.KafkaBrokers,
		"notification_topic", cfg.NotificationTopic,
		"postgres_dsn", shared.MaskDSN(cfg.PostgresDSN),
		"redis_addr", cfg.RedisAddr,
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	sched := scheduler.New(a.DB, a.Engine,
		scheduler.WithConcurrency(cfg.EvaluationConcurrency),
		scheduler.WithBreachGauge(a.Telemetry),
	)

	if *once {
		summary, err := sched.RunOnce(ctx)
		if err != nil {
			slog.Error("Evaluation failed", "error", err)
			a.Close()
			os.Exit(1)
		}
		slog.Info("Evaluation completed",
			"clients", summary.Clients,
			"created", summary.Created,
			"suppressed", summary.Suppressed,
			"failed", summary.Failed,
			"breached", summary.Breached,
		)
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Telemetry.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := a.DB.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("OK"))
	})
	server := &http.Server{
		Addr:              ":" + *metricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Starting metrics server", "port", *metricsPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server error", "error", err)
		}
	}()

	if err := sched.Start(ctx, cfg.EvaluationSchedule); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		a.Close()
		os.Exit(1)
	}

	<-ctx.Done()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error shutting down metrics server", "error", err)
	}

	slog.Info("rule-evaluator stopped")
}
