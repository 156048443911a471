package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"address_lookup_backend/internal/notify"
	"address_lookup_backend/platform/config"
	"address_lookup_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting notify worker", "env", cfg.Env, "queue", cfg.GetNotifyQueueName())

	if !cfg.IsNotifyEnabled() {
		log.Error("REDIS_URL not configured; notify worker cannot start")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker, err := notify.NewWorker(cfg, notify.LogSink{Log: log}, log)
	if err != nil {
		log.Error("failed to initialize notify worker", "error", err)
		panic("failed to initialize notify worker: " + err.Error())
	}

	if err := worker.Run(ctx); err != nil {
		log.Error("notify worker stopped", "error", err)
		os.Exit(1)
	}
	log.Info("notify worker stopped")
}
