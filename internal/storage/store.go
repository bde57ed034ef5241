// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/thespacelab/expenseledger/internal/models"
)

// Database is one physical database file: a durable record collection plus
// its settings singleton. This abstraction allows swapping storage backends
// (SQLite, bbolt, etc.) without changing the record store or the backup
// scheduler.
type Database interface {
	// LoadRecords returns all records in insertion order.
	LoadRecords(ctx context.Context) ([]models.ExpenseRecord, error)

	// AppendRecords durably appends records, preserving their order.
	// Records without an ID are assigned one.
	AppendRecords(ctx context.Context, records []models.ExpenseRecord) error

	// LoadSettings returns the settings singleton. ok is false when the
	// database has never had settings saved.
	LoadSettings(ctx context.Context) (s models.Settings, ok bool, err error)

	// SaveSettings durably replaces the settings singleton.
	SaveSettings(ctx context.Context, s models.Settings) error

	// Close releases any resources held by the database.
	Close() error
}

// Opener opens the physical database file at path, creating it if absent.
// The record store and the backup scheduler both open databases through an
// Opener so tests can substitute failing or in-memory backends.
type Opener func(path string) (Database, error)
