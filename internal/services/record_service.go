package services

import (
	"context"
	"fmt"

	"painel/internal/amqp"
	"painel/internal/core"
	"painel/internal/ports"
)

// Reloader re-reads a company's records after a write.
type Reloader interface {
	Invalidator
	Refresh(ctx context.Context, companyID string) ([]core.QuarterlyRecord, error)
}

// RecordService handles quarterly record writes. Every successful write
// returns the company's freshly loaded record list; nothing is patched in
// place.
type RecordService struct {
	store     ports.RecordStore
	publisher ports.ChangePublisher
	reader    Reloader
}

// Saved is the outcome of a record write.
type Saved struct {
	Record  core.QuarterlyRecord
	Records []core.QuarterlyRecord
}

func NewRecordService(store ports.RecordStore, publisher ports.ChangePublisher, reader Reloader) *RecordService {
	if publisher == nil {
		publisher = ports.NopPublisher{}
	}
	return &RecordService{store: store, publisher: publisher, reader: reader}
}

func (s *RecordService) Get(ctx context.Context, id string) (core.QuarterlyRecord, error) {
	return s.store.GetRecord(ctx, id)
}

func (s *RecordService) Create(ctx context.Context, r core.QuarterlyRecord) (Saved, error) {
	r.ID = ""
	r.SetQuarter(r.Period())
	if err := r.Validate(); err != nil {
		return Saved{}, err
	}

	rec, err := s.store.CreateRecord(ctx, r)
	if err != nil {
		return Saved{}, fmt.Errorf("save record: %w", err)
	}
	return s.after(ctx, amqp.ActionUpsert, rec)
}

// Update replaces every field of an existing record. The record keeps its
// company.
func (s *RecordService) Update(ctx context.Context, r core.QuarterlyRecord) (Saved, error) {
	existing, err := s.store.GetRecord(ctx, r.ID)
	if err != nil {
		return Saved{}, err
	}
	r.CompanyID = existing.CompanyID
	r.SetQuarter(r.Period())
	if err := r.Validate(); err != nil {
		return Saved{}, err
	}

	rec, err := s.store.UpdateRecord(ctx, r)
	if err != nil {
		return Saved{}, fmt.Errorf("update record: %w", err)
	}
	return s.after(ctx, amqp.ActionUpsert, rec)
}

func (s *RecordService) Delete(ctx context.Context, id string) (Saved, error) {
	existing, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return Saved{}, err
	}
	if err := s.store.DeleteRecord(ctx, id); err != nil {
		return Saved{}, fmt.Errorf("delete record: %w", err)
	}
	return s.after(ctx, amqp.ActionDelete, existing)
}

func (s *RecordService) after(ctx context.Context, action amqp.Action, rec core.QuarterlyRecord) (Saved, error) {
	publish(ctx, s.publisher, amqp.NewRecordChange(action, rec.CompanyID, rec.ID, rec.Quarter))

	records, err := s.reader.Refresh(ctx, rec.CompanyID)
	if err != nil {
		return Saved{Record: rec}, fmt.Errorf("reload records: %w", err)
	}
	return Saved{Record: rec, Records: records}, nil
}
