package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pubmed-explorer/config"
	"pubmed-explorer/logging"
	"pubmed-explorer/services"
	"pubmed-explorer/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "can't initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer st.Close()
	logger.Info("Connected to database", zap.String("driver", cfg.DBDriver))

	logger.Info("Running database auto-migration...")
	if err := st.EnsureSchema(ctx); err != nil {
		logger.Fatal("Schema migration failed", zap.Error(err))
	}
	if err := st.SeedDefaults(ctx); err != nil {
		logger.Warn("Failed to seed defaults", zap.Error(err))
	}

	pipeline, err := services.BuildPipeline(ctx, cfg, st, logger)
	if err != nil {
		logger.Fatal("Failed to set up pipeline", zap.Error(err))
	}
	logger.Info("Catalog provider loaded",
		zap.String("provider", cfg.CatalogProvider),
		zap.Bool("archive_raw_documents", cfg.ArchiveRawDocuments))

	if cfg.CronEnabled {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.CronSchedule, func() {
			logger.Info("Running scheduled ingestion job...")
			reports, err := pipeline.RunAllSearchTerms(ctx)
			if err != nil {
				logger.Error("Cron job failed", zap.Error(err))
				return
			}
			logger.Info("Cron job completed", zap.Int("runs", len(reports)))
		})
		if err != nil {
			logger.Fatal("Invalid CRON_SCHEDULE", zap.String("schedule", cfg.CronSchedule), zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("Scheduler started", zap.String("schedule", cfg.CronSchedule))
	}

	if cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           newRouter(cfg, st, pipeline, logger),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Starting server", zap.String("port", cfg.HTTPPort))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to run server", zap.Error(err))
	}
	logger.Info("Server stopped")
}
