package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goslim/infrastructure/config"
	"goslim/infrastructure/di"
	"goslim/interfaces/http/rest"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Parse the ontology before accepting traffic so the first request
	// does not pay the load
	warmupCtx, warmupCancel := context.WithTimeout(ctx, 5*time.Minute)
	loaded, err := container.Ontology.Current(warmupCtx)
	warmupCancel()
	if err != nil {
		container.Logger.Fatal("Failed to load ontology", zap.Error(err))
	}
	container.Logger.Info("ontology loaded",
		zap.String("release", loaded.Version.Release),
		zap.Int("terms", loaded.Version.TermCount),
		zap.Int("slimTerms", loaded.Snapshot.Slim().Len()),
	)

	// Hot reload is optional; the provider serves the same snapshot
	// forever when no watcher is configured
	if container.Watcher != nil {
		if err := container.Watcher.Start(); err != nil {
			container.Logger.Fatal("Failed to start ontology watcher", zap.Error(err))
		}
		defer container.Watcher.Stop()
	}

	// Requeue jobs orphaned by crashed workers
	container.Sweeper.Start(ctx)
	defer container.Sweeper.Stop()

	// Create router
	router := rest.NewRouter(
		cfg,
		container.DomainConfig,
		container.CommandBus,
		container.QueryBus,
		container.Ontology,
		container.ToolRegistry,
		container.ResultStore,
		container.RateLimiter,
		container.Logger,
	)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		container.Logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	container.Logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Server shutdown error", zap.Error(err))
	}

	// Ship whatever metrics are still buffered
	if err := container.Metrics.Flush(shutdownCtx); err != nil {
		container.Logger.Error("Failed to flush metrics", zap.Error(err))
	}

	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}
