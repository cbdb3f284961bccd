package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/polysearch/internal/metrics"
	chiTransport "github.com/kailas-cloud/polysearch/internal/transport/chi"
	"github.com/kailas-cloud/polysearch/internal/version"
)

func newServeCmd(env *string) *cobra.Command {
	var recreate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (upload, search, health, metrics)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *env, recreate)
		},
	}
	cmd.Flags().BoolVar(&recreate, "recreate", false, "drop and recreate the collection before serving")
	return cmd
}

func runServe(ctx context.Context, env string, recreate bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, env, bootOptions{recreate: recreate})
	if err != nil {
		return err
	}
	defer a.Close()
	logger, cfg := a.logger, a.cfg

	logger.Info("Starting polysearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("backend", cfg.Index.Backend),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func (a *app) router() http.Handler {
	server := chiTransport.NewServer(a.ingest, a.query, a.health, chiTransport.Config{
		MaxUploadBytes: int64(a.cfg.HTTP.MaxUploadMB) << 20,
		UploadDir:      a.files.Dir(),
		FilesPrefix:    a.cfg.Storage.PublicPrefix,
	}, a.logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(a.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(a.logger))
	r.Use(metrics.Middleware())
	r.Use(chiMiddleware.Timeout(time.Duration(a.cfg.HTTP.RequestTimeoutSec) * time.Second))
	server.Mount(r)
	return r
}
