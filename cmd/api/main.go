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

	"address_lookup_backend/internal/addresslookup"
	"address_lookup_backend/internal/events"
	apphttp "address_lookup_backend/internal/http"
	"address_lookup_backend/internal/http/router"
	"address_lookup_backend/internal/lookup"
	"address_lookup_backend/internal/notify"
	"address_lookup_backend/internal/records"
	"address_lookup_backend/internal/telemetry"
	"address_lookup_backend/internal/widgets"
	"address_lookup_backend/platform/config"
	"address_lookup_backend/platform/logger"
	"address_lookup_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	metricsNamespace = "address_lookup"
	shutdownTimeout  = 10 * time.Second
	demoRecordID     = "demo-account"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "recordStore", cfg.RecordStoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var recordsModule *records.Module
	if err := withRetry(ctx, log, "record store", 5, 2*time.Second, func() error {
		m, err := records.NewModule(ctx, cfg, log)
		if err != nil {
			return err
		}
		recordsModule = m
		return nil
	}); err != nil {
		log.Error("failed to initialize record store", "error", err)
		panic("failed to initialize record store: " + err.Error())
	}
	defer recordsModule.Close()
	log.Info("record store ready", "backend", recordsModule.Backend())

	if mem := recordsModule.Memory(); mem != nil {
		mem.Put(demoRecordID, "Account", map[string]string{"Name": "Demo Account"})
		log.Info("seeded demo record", "recordId", demoRecordID)
	}

	registry, err := widgets.Load(cfg.GetWidgetsFile())
	if err != nil {
		log.Error("failed to load widget definitions", "error", err, "file", cfg.GetWidgetsFile())
		panic("failed to load widget definitions: " + err.Error())
	}
	log.Info("widget definitions loaded", "count", len(registry.List()))

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	val := validator.New()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	lookupMetrics := telemetry.NewLookupMetrics(metricsNamespace, reg)
	httpMetrics := telemetry.NewHTTPMetrics(metricsNamespace, reg)

	if cfg.IsNotifyEnabled() {
		notifyClient, err := notify.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize notify client", "error", err)
			panic("failed to initialize notify client: " + err.Error())
		}
		defer func() { _ = notifyClient.Close() }()
		notify.NewRelay(notifyClient, log).RegisterHandlers(eventBus)
		log.Info("notify relay enabled", "queue", cfg.GetNotifyQueueName())
	} else {
		log.Warn("REDIS_URL not configured; save notifications disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	lookupModule := lookup.NewModule(cfg, log)
	addressModule := addresslookup.NewModule(
		cfg,
		registry,
		lookupModule.Service(),
		recordsModule.Store(),
		eventBus,
		val,
		lookupMetrics,
		log,
	)
	telemetry.RegisterSessionGauge(metricsNamespace, reg, addressModule.OpenSessions)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:     cfg,
		Logger:     log,
		Health:     recordsModule,
		EventBus:   eventBus,
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Middleware: []gin.HandlerFunc{httpMetrics.Middleware()},
		Modules: []apphttp.Module{
			addressModule,
		},
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		addressModule.RunJanitor(groupCtx)
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		eventBus.Wait()
		return err
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
