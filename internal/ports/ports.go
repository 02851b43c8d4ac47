// Package ports declares the interfaces between services and their adapters.
package ports

import (
	"context"

	"painel/internal/amqp"
	"painel/internal/core"
)

// Ports for outbound adapters.
type (
	CompanyStore interface {
		// ListCompanies returns every company ordered by name.
		ListCompanies(ctx context.Context) ([]core.Company, error)
		GetCompany(ctx context.Context, id string) (core.Company, error)
		CreateCompany(ctx context.Context, c core.Company) (core.Company, error)
		UpdateCompany(ctx context.Context, c core.Company) (core.Company, error)
		DeleteCompany(ctx context.Context, id string) error
	}

	RecordStore interface {
		// ListRecords returns a company's records ordered by year desc, quarter desc.
		ListRecords(ctx context.Context, companyID string) ([]core.QuarterlyRecord, error)
		GetRecord(ctx context.Context, id string) (core.QuarterlyRecord, error)
		CreateRecord(ctx context.Context, r core.QuarterlyRecord) (core.QuarterlyRecord, error)
		UpdateRecord(ctx context.Context, r core.QuarterlyRecord) (core.QuarterlyRecord, error)
		DeleteRecord(ctx context.Context, id string) error
	}

	// Store is a complete persistence backend.
	Store interface {
		CompanyStore
		RecordStore
		Ping(ctx context.Context) error
		Close() error
	}

	// ChangePublisher announces mutations to other processes.
	ChangePublisher interface {
		PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
	}

	// Exporter mirrors a company's records into an external sheet.
	Exporter interface {
		ExportCompany(ctx context.Context, c core.Company, records []core.QuarterlyRecord) error
		DeleteCompany(ctx context.Context, ticker string) error
	}
)

// NopPublisher drops every message. It stands in when AMQP is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishChange(context.Context, *amqp.ChangeMessage) error { return nil }
