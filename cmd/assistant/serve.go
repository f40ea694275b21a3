// cmd/assistant/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shop-assistant/internal/api"
	"shop-assistant/internal/common/config"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/observability"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides app.port)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if servePort != 0 {
		cfg.App.Port = servePort
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting shop assistant...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	if err != nil {
		zapLog.Warn("tracing disabled", zap.Error(err))
		shutdownTracer = func(context.Context) error { return nil }
	}
	obs := observability.New(cfg.Observability.ServiceName, log)

	a, err := build(ctx, cfg, obs, log)
	if err != nil {
		return err
	}

	if !cfg.App.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      api.NewRouter(a.routes),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, draining requests...")
	case err := <-serveErr:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	a.close(log)
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("Error flushing metrics", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		zapLog.Warn("Error flushing traces", zap.Error(err))
	}

	zapLog.Info("Shop assistant stopped gracefully")
	return nil
}
