package services

import (
	"context"
	"fmt"
	"log/slog"

	"painel/internal/amqp"
	"painel/internal/core"
	"painel/internal/ports"
)

// Invalidator drops cached reads after a write.
type Invalidator interface {
	InvalidateCompanies()
	InvalidateRecords(companyID string)
}

// CompanyService handles company writes: validate, persist, announce.
type CompanyService struct {
	store     ports.CompanyStore
	publisher ports.ChangePublisher
	cache     Invalidator
}

func NewCompanyService(store ports.CompanyStore, publisher ports.ChangePublisher, cache Invalidator) *CompanyService {
	if publisher == nil {
		publisher = ports.NopPublisher{}
	}
	return &CompanyService{store: store, publisher: publisher, cache: cache}
}

func (s *CompanyService) Get(ctx context.Context, id string) (core.Company, error) {
	return s.store.GetCompany(ctx, id)
}

func (s *CompanyService) Create(ctx context.Context, c core.Company) (core.Company, error) {
	c.ID = ""
	c.Normalize()
	if err := c.Validate(); err != nil {
		return core.Company{}, err
	}

	saved, err := s.store.CreateCompany(ctx, c)
	if err != nil {
		return core.Company{}, fmt.Errorf("save company: %w", err)
	}
	s.cache.InvalidateCompanies()

	publish(ctx, s.publisher, amqp.NewCompanyChange(amqp.ActionUpsert, saved.ID, saved.Ticker))
	return saved, nil
}

func (s *CompanyService) Update(ctx context.Context, c core.Company) (core.Company, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return core.Company{}, err
	}

	saved, err := s.store.UpdateCompany(ctx, c)
	if err != nil {
		return core.Company{}, fmt.Errorf("update company: %w", err)
	}
	s.cache.InvalidateCompanies()

	publish(ctx, s.publisher, amqp.NewCompanyChange(amqp.ActionUpsert, saved.ID, saved.Ticker))
	return saved, nil
}

// Delete removes the company together with its records.
func (s *CompanyService) Delete(ctx context.Context, id string) error {
	c, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCompany(ctx, id); err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	s.cache.InvalidateCompanies()
	s.cache.InvalidateRecords(id)

	publish(ctx, s.publisher, amqp.NewCompanyChange(amqp.ActionDelete, c.ID, c.Ticker))
	return nil
}

// publish sends msg and only logs a failure: the write already succeeded.
func publish(ctx context.Context, p ports.ChangePublisher, msg *amqp.ChangeMessage) {
	if err := p.PublishChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"error", err,
			"kind", msg.Kind,
			"action", msg.Action,
			"company_id", msg.CompanyID)
	}
}
