package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"painel/internal/amqp"
	"painel/internal/core"
	"painel/internal/ports"
)

// SyncWorker keeps the external spreadsheet in step with storage. Change
// messages carry identifiers only, so every export reloads current state.
type SyncWorker struct {
	store    ports.Store
	exporter ports.Exporter
}

func NewSyncWorker(store ports.Store, exporter ports.Exporter) *SyncWorker {
	return &SyncWorker{store: store, exporter: exporter}
}

// HandleChange processes one change message.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"message_id", msg.ID,
		"kind", msg.Kind,
		"action", msg.Action,
		"company_id", msg.CompanyID)

	if msg.Kind == amqp.KindCompany && msg.Action == amqp.ActionDelete {
		if err := w.exporter.DeleteCompany(ctx, msg.Ticker); err != nil {
			return fmt.Errorf("delete company %s from export: %w", msg.Ticker, err)
		}
		return nil
	}

	c, err := w.store.GetCompany(ctx, msg.CompanyID)
	if errors.Is(err, core.ErrNotFound) {
		// The company was deleted after the message was published; its
		// own delete message clears the export.
		slog.WarnContext(ctx, "Skipping change for missing company", "company_id", msg.CompanyID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get company: %w", err)
	}
	return w.exportCompany(ctx, c)
}

// ExportAll exports every company. It carries on past failures and
// returns them joined.
func (w *SyncWorker) ExportAll(ctx context.Context) error {
	companies, err := w.store.ListCompanies(ctx)
	if err != nil {
		return fmt.Errorf("list companies: %w", err)
	}

	start := time.Now()
	var errs []error
	for _, c := range companies {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.exportCompany(ctx, c); err != nil {
			slog.ErrorContext(ctx, "Company export failed", "company_id", c.ID, "ticker", c.Ticker, "error", err)
			errs = append(errs, err)
		}
	}

	slog.InfoContext(ctx, "Full export finished",
		"companies", len(companies),
		"failed", len(errs),
		"duration", time.Since(start).String())
	return errors.Join(errs...)
}

func (w *SyncWorker) exportCompany(ctx context.Context, c core.Company) error {
	records, err := w.store.ListRecords(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("list records for %s: %w", c.Ticker, err)
	}
	if err := w.exporter.ExportCompany(ctx, c, records); err != nil {
		return fmt.Errorf("export %s: %w", c.Ticker, err)
	}
	return nil
}

// RunSchedule runs ExportAll on the cron schedule until ctx is done and
// waits for a running export to finish before returning.
func (w *SyncWorker) RunSchedule(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if err := w.ExportAll(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled export failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("parse schedule %q: %w", schedule, err)
	}

	c.Start()
	slog.InfoContext(ctx, "Export schedule started", "schedule", schedule)

	<-ctx.Done()
	<-c.Stop().Done()
	slog.InfoContext(ctx, "Export schedule stopped")
	return nil
}
