// Package app wires the storage, event, metrics and rules components shared
// by the adherence binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/afikmenashe/adherence-platform/internal/config"
	"github.com/afikmenashe/adherence-platform/internal/database"
	"github.com/afikmenashe/adherence-platform/internal/notification"
	"github.com/afikmenashe/adherence-platform/internal/producer"
	"github.com/afikmenashe/adherence-platform/internal/rules"
	"github.com/afikmenashe/adherence-platform/internal/telemetry"
	"github.com/afikmenashe/adherence-platform/pkg/metrics"
	"github.com/afikmenashe/adherence-platform/pkg/shared"
)

// Publisher is satisfied by both the Kafka producer and producer.NoOp.
type Publisher interface {
	rules.Publisher
	notification.EventPublisher
	Close() error
}

// App holds the components shared by every binary.
type App struct {
	DB        *database.DB
	Redis     *redis.Client
	Collector *metrics.Collector
	Telemetry *telemetry.Metrics
	Publisher Publisher
	Engine    *rules.Engine
	Lifecycle *notification.Lifecycle
}

// SetupLogging installs the default slog text handler at the configured level.
func SetupLogging(cfg *config.Config) {
	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))
}

// Open connects every dependency. Redis and Kafka are optional: an empty
// address disables them. The caller must call Close.
func Open(ctx context.Context, cfg *config.Config, serviceName string) (*App, error) {
	a := &App{}

	slog.Info("Connecting to PostgreSQL database")
	db, err := database.NewDB(cfg.PostgresDSN)
	if err != nil {
		slog.Info("Tip: Start Postgres with 'docker compose up -d postgres' or ensure Postgres is running")
		return nil, err
	}
	a.DB = db
	slog.Info("Successfully connected to PostgreSQL database")

	if cfg.Migrate {
		if err := db.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		slog.Info("Database schema applied")
	}

	if cfg.RedisAddr != "" {
		client, err := shared.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Warn("Service metrics disabled", "error", err)
		} else {
			a.Redis = client
			a.Collector = metrics.NewCollector(serviceName, client)
			a.Collector.Start(ctx)
			slog.Info("Service metrics collector started", "service", serviceName, "redis_addr", cfg.RedisAddr)
		}
	}
	a.Telemetry = telemetry.New(a.Collector)

	if cfg.KafkaBrokers == "" {
		slog.Info("Kafka brokers not set, notification events disabled")
		a.Publisher = producer.NoOp{}
	} else {
		p, err := producer.NewProducer(cfg.KafkaBrokers, cfg.NotificationTopic)
		if err != nil {
			slog.Info("Tip: Start Kafka with 'docker compose up -d kafka'")
			a.Close()
			return nil, err
		}
		a.Publisher = p
	}

	engine, err := rules.NewEngine(db,
		rules.WithPublisher(a.Publisher),
		rules.WithMetrics(a.Telemetry),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create rules engine: %w", err)
	}
	a.Engine = engine
	a.Lifecycle = notification.NewLifecycle(db, notification.WithPublisher(a.Publisher))

	return a, nil
}

// Close releases every connection opened by Open.
func (a *App) Close() {
	if a.Collector != nil {
		a.Collector.Stop()
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			slog.Error("Failed to close Kafka producer", "error", err)
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
