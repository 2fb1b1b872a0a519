package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/aleksworks/docintel/internal/adapters/http"
	"github.com/aleksworks/docintel/internal/bootstrap"
	"github.com/aleksworks/docintel/internal/config"
	"github.com/aleksworks/docintel/internal/observability/logging"
	"github.com/aleksworks/docintel/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	httpMetrics := metrics.NewHTTPServerMetrics("api")

	chunkCount, err := app.RebuildUC.Rebuild(ctx)
	httpMetrics.RecordIndexRebuild("api", chunkCount, err)
	if err != nil {
		logger.Error("initial_index_rebuild_failed", "error", err)
		os.Exit(1)
	}
	logger.Info("keyword_index_ready", "chunks", chunkCount)

	// Every API instance holds its own in-memory keyword index, so rebuild
	// whenever any worker finishes or a document is removed.
	go func() {
		err := app.Queue.SubscribeDocumentIndexed(ctx, func(handlerCtx context.Context, documentID string) error {
			n, rebuildErr := app.RebuildUC.Rebuild(handlerCtx)
			httpMetrics.RecordIndexRebuild("api", n, rebuildErr)
			if rebuildErr != nil {
				return rebuildErr
			}
			logger.Info("keyword_index_rebuilt", "trigger_document_id", documentID, "chunks", n)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("indexed_subscription_stopped", "error", err)
		}
	}()

	router := httpadapter.NewRouter(cfg, app.SearchUC, app.SearchUC, app.IngestUC, app.DeleteUC, app.Repo, httpMetrics)
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
