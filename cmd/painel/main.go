package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"painel/internal/cache"
	"painel/internal/cli"
	apphttp "painel/internal/http"
	applog "painel/internal/log"
	"painel/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	cacheSweep      = time.Minute
	sessionTTL      = 2 * time.Hour
	sessionCapacity = 4096
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	be := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dashboard := services.NewDashboardService(be.Store, cfg.CacheSize, cfg.CacheTTL)
	selections := services.NewSelections(sessionCapacity, sessionTTL)

	caches := cache.NewManager()
	dashboard.RegisterCaches(caches)
	selections.RegisterCache(caches)
	go caches.Run(ctx, cacheSweep)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:      be.Store,
		Dashboard:  dashboard,
		Companies:  services.NewCompanyService(be.Store, be.Publisher, dashboard),
		Records:    services.NewRecordService(be.Store, be.Publisher, dashboard),
		Selections: selections,
		Logger:     logger,
		Registry:   reg,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		FirstYear:          cfg.QuarterFirstYear,
		LastYear:           cfg.QuarterLastYear,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting painel server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"amqp_enabled", cfg.AMQPURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
