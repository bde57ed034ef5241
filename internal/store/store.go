// Package store implements the record store: CRUD and filtered listing over
// the active database, merge imports with duplicate detection, the settings
// contract, atomic database switch-over, and the subscribe/notify change
// bus consumed by UI collaborators.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/thespacelab/expenseledger/internal/models"
	"github.com/thespacelab/expenseledger/internal/registry"
	"github.com/thespacelab/expenseledger/internal/storage"
)

// Store owns the in-memory record collection for the active database and
// serializes all mutation against it. The registry and the store agree on
// the active database: the switch is two-phase (load the new database
// fully, then swap the pointer), so a listener never observes a partially
// switched state.
type Store struct {
	reg  *registry.Registry
	open storage.Opener
	dir  string

	mu       sync.RWMutex
	fileID   string
	db       storage.Database
	records  []models.ExpenseRecord
	settings models.Settings

	listeners *listenerSet
}

// Open binds a store to the registry's active database, loading its records
// and settings. A database with no settings gets the defaults persisted.
func Open(ctx context.Context, reg *registry.Registry, open storage.Opener, dir string) (*Store, error) {
	s := &Store{
		reg:       reg,
		open:      open,
		dir:       dir,
		listeners: newListenerSet(),
	}

	fileID := reg.Active()
	db, records, settings, err := s.load(ctx, fileID)
	if err != nil {
		return nil, err
	}
	s.fileID = fileID
	s.db = db
	s.records = records
	s.settings = settings
	return s, nil
}

// Close releases the active database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// ActiveFileID returns the FileID of the database the store is bound to.
func (s *Store) ActiveFileID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileID
}

// Subscribe registers a change listener and returns its unsubscribe handle.
// Every mutating operation invokes each registered listener exactly once,
// in registration order, after the mutation is durably applied.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	return s.listeners.subscribe(fn)
}

// List returns the active database's records matching filter, in insertion
// order. A nil filter returns everything.
func (s *Store) List(filter Filter) []models.ExpenseRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if filter == nil {
		out := make([]models.ExpenseRecord, len(s.records))
		copy(out, s.records)
		return out
	}
	var out []models.ExpenseRecord
	for _, r := range s.records {
		if filter(r) {
			out = append(out, r)
		}
	}
	return out
}

// ExportAll returns every record of the active database for handoff to the
// normalizer.
func (s *Store) ExportAll() []models.ExpenseRecord {
	return s.List(nil)
}

// Summarize aggregates the filtered listing into totals and per-category /
// per-merchant breakdowns.
func (s *Store) Summarize(filter Filter) Summary {
	return summarize(s.List(filter))
}

// InsertMany appends records unconditionally and notifies listeners.
func (s *Store) InsertMany(ctx context.Context, records []models.ExpenseRecord) error {
	_, err := s.ImportMerge(ctx, records, false)
	return err
}

// ImportMerge appends candidate records into the active database. When
// checkDuplicates is true a candidate is skipped iff its date, description,
// category and both amounts all equal an existing record's; merchant and
// paid-through are deliberately not part of the key. Returns the number of
// records actually appended.
func (s *Store) ImportMerge(ctx context.Context, candidates []models.ExpenseRecord, checkDuplicates bool) (int, error) {
	s.mu.Lock()

	var accepted []models.ExpenseRecord
	if checkDuplicates {
		seen := make(map[models.RecordKey]bool, len(s.records))
		for _, r := range s.records {
			seen[r.Key()] = true
		}
		for _, c := range candidates {
			key := c.Key()
			if seen[key] {
				duplicatesSkipped.Inc()
				continue
			}
			seen[key] = true
			accepted = append(accepted, c)
		}
	} else {
		accepted = append(accepted, candidates...)
	}

	if err := s.db.AppendRecords(ctx, accepted); err != nil {
		s.mu.Unlock()
		return 0, fmt.Errorf("import into %s: %w", s.fileID, err)
	}
	s.records = append(s.records, accepted...)
	recordsImported.Add(float64(len(accepted)))

	slog.Info("records imported",
		"database", s.fileID,
		"imported", len(accepted),
		"skipped", len(candidates)-len(accepted),
	)
	s.mu.Unlock()

	// Notify outside the lock so a listener may call back into the store.
	s.listeners.notify()
	return len(accepted), nil
}

// GetSettings returns the active database's settings. Always defined:
// databases without persisted settings report the defaults.
func (s *Store) GetSettings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings merges the patch into the current settings, persists, and
// notifies listeners.
func (s *Store) SetSettings(ctx context.Context, patch models.SettingsPatch) error {
	s.mu.Lock()

	updated := s.settings
	updated.Merge(patch)
	if err := s.db.SaveSettings(ctx, updated); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save settings for %s: %w", s.fileID, err)
	}
	s.settings = updated
	s.mu.Unlock()

	s.listeners.notify()
	return nil
}

// SwitchActive atomically rebinds the store to another registered database.
// The new database is opened and loaded before anything changes; a failure
// at any point leaves the previously active database, its records, and the
// registry pointer untouched. Listeners are notified once, after the swap.
func (s *Store) SwitchActive(ctx context.Context, fileID string) error {
	desc, err := s.reg.Get(fileID)
	if err != nil {
		return err
	}

	// Phase one: load the new database completely.
	db, records, settings, err := s.load(ctx, fileID)
	if err != nil {
		return err
	}

	// Phase two: swap the pointer.
	s.mu.Lock()
	if err := s.reg.SetActive(fileID); err != nil {
		s.mu.Unlock()
		db.Close()
		return err
	}
	old := s.db
	s.fileID = fileID
	s.db = db
	s.records = records
	s.settings = settings
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		slog.Warn("closing previous database", "database", desc.FileID, "error", err)
	}
	if err := s.reg.RecordUsage(fileID, desc.DisplayName); err != nil {
		slog.Warn("recording database usage", "database", fileID, "error", err)
	}
	databaseSwitches.Inc()
	slog.Info("active database switched", "database", fileID, "records", len(records))

	s.listeners.notify()
	return nil
}

// load opens and fully reads one database: records plus settings, with
// defaults persisted when the database has none.
func (s *Store) load(ctx context.Context, fileID string) (storage.Database, []models.ExpenseRecord, models.Settings, error) {
	db, err := s.open(filepath.Join(s.dir, fileID))
	if err != nil {
		return nil, nil, models.Settings{}, fmt.Errorf("open database %s: %w", fileID, err)
	}
	records, err := db.LoadRecords(ctx)
	if err != nil {
		db.Close()
		return nil, nil, models.Settings{}, fmt.Errorf("load records from %s: %w", fileID, err)
	}
	settings, ok, err := db.LoadSettings(ctx)
	if err != nil {
		db.Close()
		return nil, nil, models.Settings{}, fmt.Errorf("load settings from %s: %w", fileID, err)
	}
	if !ok {
		settings = models.DefaultSettings()
		if err := db.SaveSettings(ctx, settings); err != nil {
			db.Close()
			return nil, nil, models.Settings{}, fmt.Errorf("initialize settings for %s: %w", fileID, err)
		}
	}
	return db, records, settings, nil
}
