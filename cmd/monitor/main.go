// Package main is the entry point for the DDF-pipeline queue monitor.
// It watches the fields of one cluster and keeps one download and one
// upload running until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ddfmonitor/internal/config"
	"ddfmonitor/internal/logger"
	"ddfmonitor/internal/monitor"
	"ddfmonitor/internal/observability"
	"ddfmonitor/internal/statusapi"
	"ddfmonitor/internal/store/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ddfmonitor.yaml in current directory)")
	migrate := flag.Bool("migrate", false, "Apply database migrations before starting")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(cfg.DatabaseURL, cfg.QueryTimeout)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(ctx); err != nil {
		appLogger.Warn("database unreachable at startup, cycles will retry", "error", err)
	}

	if *migrate {
		if err := postgres.Migrate(db.DB()); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		appLogger.Info("database migrations applied")
	}

	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, "ddfmonitor", cfg.Cluster, cfg.OTELEndpoint)
		if err != nil {
			log.Fatalf("Failed to init tracing: %v", err)
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				appLogger.Warn("failed to shutdown tracer", "error", err)
			}
		}()
	}

	metricsHandler, shutdownMetrics, err := observability.InitMetrics(ctx, "ddfmonitor", cfg.Cluster)
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			appLogger.Warn("failed to shutdown metrics", "error", err)
		}
	}()

	pipeline, err := newPipelineRunner(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to create pipeline runner: %v", err)
	}
	uploader, closeUploader, err := newUploadRunner(ctx, cfg, db, appLogger)
	if err != nil {
		log.Fatalf("Failed to create upload runner: %v", err)
	}
	defer closeUploader()

	mon := monitor.New(db, pipeline, uploader, monitor.Config{
		Cluster:      cfg.Cluster,
		BaseDir:      cfg.BaseDir,
		QueueLimit:   cfg.QueueLimit,
		PollInterval: cfg.PollInterval,
	}, os.Stdout, appLogger)

	server := statusapi.New(statusapi.Config{
		Addr:      fmt.Sprintf(":%d", cfg.HTTPPort),
		Reports:   mon,
		DB:        db,
		BaseDir:   cfg.BaseDir,
		Metrics:   metricsHandler,
		RateLimit: cfg.StatusRateLimit,
		Logger:    appLogger,
	})

	go func() {
		appLogger.Info("status API listening", "port", cfg.HTTPPort)
		if err := server.Run(ctx); err != nil {
			appLogger.Error("status API stopped", "error", err)
		}
	}()

	go func() {
		if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error("monitor stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down, waiting for running tasks (signal again to force)")
	cancel()

	select {
	case <-mon.Done():
	case <-quit:
		appLogger.Warn("forced exit, running containers and jobs are left in place")
		os.Exit(1)
	}
}
