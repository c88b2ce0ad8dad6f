package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fr0stylo/ingestq/internal/adapters/sqlite"
	appservices "github.com/fr0stylo/ingestq/internal/app/services"
	"github.com/fr0stylo/ingestq/internal/config"
	"github.com/fr0stylo/ingestq/internal/db"
	"github.com/fr0stylo/ingestq/internal/observability"
	"github.com/fr0stylo/ingestq/internal/processor"
	"github.com/fr0stylo/ingestq/internal/scheduler"
	"github.com/fr0stylo/ingestq/internal/server"
	"github.com/fr0stylo/ingestq/internal/server/routes"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	baseHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	log := slog.New(observability.WrapSlogHandler(baseHandler))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.SetupOpenTelemetry(ctx, log, observability.OpenTelemetryConfig{
		Enabled:           cfg.Observability.Enabled,
		OTLPEndpoint:      cfg.Observability.OTLPEndpoint,
		OTLPTraceHeaders:  cfg.Observability.OTLPTraceHeaders,
		OTLPMetricHeaders: cfg.Observability.OTLPMetricHeaders,
		ServiceName:       cfg.Observability.ServiceName,
		ServiceVer:        cfg.Observability.ServiceVer,
		Environment:       cfg.Environment,
		SamplingRatio:     cfg.Observability.SamplingRatio,
		MetricsConsole:    cfg.Observability.MetricsConsole,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			slog.Error("Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	if cfg.Database.LogTiming {
		go logDBLatencyStats(ctx, log, database)
	}

	store := sqlite.NewRecordStore(database)

	recordProcessor, err := processor.New(processor.Config{
		Kind:     cfg.Processor.Kind,
		Latency:  cfg.ProcessorLatency(),
		Endpoint: cfg.Processor.Endpoint,
		Secret:   cfg.Processor.Secret,
		Timeout:  cfg.ProcessorTimeout(),
	}, log)
	if err != nil {
		return fmt.Errorf("failed to build processor: %w", err)
	}

	dispatcher := scheduler.New(store, recordProcessor, scheduler.Config{
		Cooldown:    cfg.Cooldown(),
		CallTimeout: cfg.ProcessorTimeout(),
		StaleAfter:  cfg.StaleTriggeredAfter(),
	}, scheduler.WithLogger(log))
	if err := dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to recover batches: %w", err)
	}
	go recoverStaleBatches(ctx, dispatcher, cfg.StaleTriggeredAfter())
	go dispatcher.ReportStats(ctx, cfg.StatsInterval())

	ingestion := appservices.NewIngestionService(store, dispatcher, appservices.IngestionConfig{
		BatchSize:  cfg.Ingestion.BatchSize,
		MaxPending: cfg.Ingestion.MaxPending,
	})

	srv := server.New(log, server.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Tracing:        cfg.Observability.Enabled,
	})
	srv.RegisterRouter(routes.NewAPIRoutes(ingestion, dispatcher, log))
	srv.RegisterRouter(routes.NewViewRoutes(ingestion, dispatcher))

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("Starting server", "port", cfg.Server.Port, "processor", cfg.Processor.Kind, "cooldown", cfg.Cooldown())
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shutdown server", "error", err)
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		slog.Error("Failed to stop dispatcher", "error", err)
	}
	return nil
}

func main() {
	if err := Run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func recoverStaleBatches(ctx context.Context, dispatcher *scheduler.Scheduler, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := dispatcher.Recover(ctx); err != nil {
				slog.Error("Failed to recover stale batches", "error", err)
			}
		}
	}
}

func logDBLatencyStats(ctx context.Context, log *slog.Logger, database *db.Database) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		stats := database.QueryLatencyStats()
		for _, entry := range stats[:min(5, len(stats))] {
			log.Info("db_query_latency",
				"query", entry.Name,
				"count", entry.Count,
				"p50_ms", entry.P50.Milliseconds(),
				"p95_ms", entry.P95.Milliseconds(),
				"max_ms", entry.Max.Milliseconds(),
			)
		}
	}
}
