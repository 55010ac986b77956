package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"orderstats/config"
	"orderstats/internal/api"
	"orderstats/internal/redis"
	"orderstats/internal/sqs"
	"orderstats/internal/workers"
	"orderstats/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize logger
	lg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer lg.Sync()

	lg.Info("starting order stats service",
		"queue", cfg.SQS.QueueName,
		"redis", cfg.Redis.Addr,
		"api", cfg.API.Addr,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to Redis
	store, err := redis.NewClient(cfg.Redis)
	if err != nil {
		lg.Fatal("failed to connect to Redis", "error", err)
	}
	defer store.Close()
	lg.Info("connected to Redis")

	// Connect to SQS
	queue, err := sqs.NewClient(ctx, cfg.SQS)
	if err != nil {
		lg.Fatal("failed to connect to SQS", "error", err)
	}
	lg.Info("connected to SQS")

	worker := workers.NewOrderWorker(queue, store, lg, cfg.Worker.IdleDelay)

	srv := &http.Server{
		Addr:    cfg.API.Addr,
		Handler: api.NewRouter(cfg.API.Mode, lg, store),
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			lg.Error("worker stopped", "error", err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("api server stopped", "error", err)
		}
	}()

	lg.Info("service started")

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("api shutdown failed", "error", err)
	}

	wg.Wait()
	lg.Info("stopped gracefully")
}
