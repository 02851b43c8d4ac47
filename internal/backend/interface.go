package backend

import (
	"context"

	"painel/internal/ports"
)

// CleanupFunc releases what a backend holds open.
type CleanupFunc func() error

// BackendResult is a ready store plus the publisher mutations announce to.
type BackendResult struct {
	Store     ports.Store
	Publisher ports.ChangePublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific: start with the demo companies and quarters.
	SeedDemoData bool

	// Optional change announcements; empty URL disables them.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
