// Package sqlite provides a SQLite-backed implementation of the
// storage.Database interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/thespacelab/expenseledger/internal/models"
	"github.com/thespacelab/expenseledger/internal/storage"
)

// Ensure Database implements storage.Database
var _ storage.Database = (*Database)(nil)

// Database implements storage.Database using SQLite.
type Database struct {
	db *sql.DB
}

// Open creates a new Database at the given path. It creates the parent
// directories and runs migrations automatically. Open satisfies
// storage.Opener.
func Open(dbPath string) (storage.Database, error) {
	return New(dbPath)
}

// New creates a new Database with the given database path.
func New(dbPath string) (*Database, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Serialize writers; the record store is the single logical owner.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// LoadRecords returns all records in insertion order.
func (d *Database) LoadRecords(ctx context.Context) ([]models.ExpenseRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, date, description, category, merchant, paid_through, income, expense
		 FROM records ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.ExpenseRecord
	for rows.Next() {
		var r models.ExpenseRecord
		var date, income, expense string
		if err := rows.Scan(&r.ID, &date, &r.Description, &r.Category,
			&r.Merchant, &r.PaidThrough, &income, &expense); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if r.Date, err = models.ParseDate(date); err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", r.ID, err)
		}
		if r.Income, err = decimal.NewFromString(income); err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", r.ID, err)
		}
		if r.Expense, err = decimal.NewFromString(expense); err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// AppendRecords durably appends records in order, assigning IDs where
// missing. The write is transactional: either every record lands or none
// does.
func (d *Database) AppendRecords(ctx context.Context, records []models.ExpenseRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), 0) + 1 FROM records",
	).Scan(&next); err != nil {
		return fmt.Errorf("failed to read next position: %w", err)
	}

	for i := range records {
		r := &records[i]
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO records (id, position, date, description, category, merchant, paid_through, income, expense)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, next, r.Date.String(), r.Description, r.Category,
			r.Merchant, r.PaidThrough, r.Income.String(), r.Expense.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert record: %w: %v", models.ErrPersistence, err)
		}
		next++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w: %v", models.ErrPersistence, err)
	}
	return nil
}

// LoadSettings returns the settings singleton, ok=false when none was ever
// saved.
func (d *Database) LoadSettings(ctx context.Context) (models.Settings, bool, error) {
	var data string
	err := d.db.QueryRowContext(ctx, "SELECT data FROM settings WHERE id = 1").Scan(&data)
	if err == sql.ErrNoRows {
		return models.Settings{}, false, nil
	}
	if err != nil {
		return models.Settings{}, false, fmt.Errorf("failed to query settings: %w", err)
	}

	var s models.Settings
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return models.Settings{}, false, fmt.Errorf("failed to decode settings: %w", err)
	}
	return s, true, nil
}

// SaveSettings durably replaces the settings singleton.
func (d *Database) SaveSettings(ctx context.Context, s models.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO settings (id, data) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET data = excluded.data`,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w: %v", models.ErrPersistence, err)
	}
	return nil
}
