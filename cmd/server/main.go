package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"winequality/internal/config"
	"winequality/internal/data"
	"winequality/internal/observability"
	"winequality/internal/persistence"
	"winequality/internal/server"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file (default: configs/wine.yaml if present)")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	flag.Parse()

	if err := run(*configFile, *addr); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configFile, addr string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger := observability.InitLogger(cfg.Log)

	bundle, err := persistence.LoadModelBundle(cfg.Artifacts.ModelPath)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	scaler, err := persistence.LoadScaler(cfg.Artifacts.ScalerPath)
	if err != nil {
		return fmt.Errorf("load scaler: %w", err)
	}
	ds, err := data.LoadWineDataset(cfg.Data.Path)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	app, err := server.NewApp(bundle.Model, scaler, ds, server.WithMetadata(bundle.Metadata))
	if err != nil {
		return err
	}

	logger.Info("model loaded",
		"model", bundle.Metadata.Candidate,
		"run_id", bundle.Metadata.RunID,
		"test_f1", bundle.Metadata.TestF1,
		"samples", ds.Len(),
	)

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(app, observability.NewMetrics(), logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "address", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
