package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"painel/internal/amqp"
	"painel/internal/cli"
	applog "painel/internal/log"
	"painel/internal/sheets"
	"painel/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(applog.ComponentWorker)

	if cfg.DataBackend != "sqlite" {
		logger.Error("painel-worker needs the shared sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if !cfg.ExportEnabled() {
		logger.Error("Spreadsheet export is not configured; set GOOGLE_SPREADSHEET_ID and credentials")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	// The worker only consumes; it opens the store without a publisher.
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	be := cli.OpenBackend(ctx, logger, &storeCfg)
	defer be.Cleanup()

	exporter, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON:    cfg.GoogleOAuthClientJSON,
		OAuthClientFile:    cfg.GoogleOAuthClientFile,
		OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", "error", err)
		os.Exit(1)
	}
	syncWorker := worker.NewSyncWorker(be.Store, exporter)

	logger.Info("Starting painel-worker",
		applog.FieldOperation, applog.OpStartup,
		"schedule", cfg.SyncSchedule,
		"amqp_enabled", cfg.AMQPURL != "")

	// Catch up on anything missed while the worker was down.
	if err := syncWorker.ExportAll(ctx); err != nil {
		logger.Error("Startup export finished with errors", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return syncWorker.RunSchedule(gctx, cfg.SyncSchedule)
	})
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		g.Go(func() error {
			return client.ConsumeChanges(gctx, syncWorker.HandleChange)
		})
	} else {
		logger.Info("AMQP not configured; relying on the export schedule only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
