package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vmaslov/askdocs/internal/bootstrap"
	"github.com/vmaslov/askdocs/internal/config"
	"github.com/vmaslov/askdocs/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("importer", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewImporter(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	// Metrics stay scrapeable while a long rebuild runs.
	metricsServer := &http.Server{
		Addr:    ":" + cfg.ImporterMetricsPort,
		Handler: app.Metrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	summary, err := app.Ingest.Run(ctx)
	if err != nil {
		logger.Error("ingest_failed", "error", err)
		app.Close()
		os.Exit(1)
	}

	logger.Info("ingest_summary",
		"documents", summary.Documents,
		"indexed", summary.Indexed,
		"unextractable", summary.Unextractable,
		"failed", summary.Failed,
		"chunks", summary.Chunks,
		"skipped", summary.Skipped,
	)
}
