// Package registry tracks the set of known database files, their display
// names, and which one is active.
//
// The registry is metadata only: it never opens, creates, or deletes the
// physical database files it describes. It persists to a small JSON file in
// the data directory, written atomically (temp file + rename).
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/thespacelab/expenseledger/internal/models"
)

const fileName = "databases.json"

// DefaultDisplayName is the display name of the implicit primary database.
const DefaultDisplayName = "Primary"

type state struct {
	Active    string                      `json:"active"`
	Databases []models.DatabaseDescriptor `json:"databases"`
}

// Registry is the ordered collection of database descriptors, most recently
// added or used first, unique by FileID. The implicit default database is
// always listed even if it was never explicitly added.
type Registry struct {
	mu    sync.Mutex
	path  string
	state state

	now func() time.Time
}

// Open loads the registry file from dir, or starts empty if it does not
// exist yet.
func Open(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create registry directory: %w", err)
	}
	r := &Registry{
		path: filepath.Join(dir, fileName),
		now:  time.Now,
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if err := json.Unmarshal(data, &r.state); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return r, nil
}

// List returns all known descriptors in recency order. The implicit default
// database is appended if no descriptor claims its FileID.
func (r *Registry) List() []models.DatabaseDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.DatabaseDescriptor, len(r.state.Databases))
	copy(out, r.state.Databases)
	if r.indexOf(models.DefaultFileID) < 0 {
		out = append(out, defaultDescriptor())
	}
	return out
}

// Get returns the descriptor for fileID, or ErrNotFound.
func (r *Registry) Get(fileID string) (models.DatabaseDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOf(fileID); i >= 0 {
		return r.state.Databases[i], nil
	}
	if fileID == models.DefaultFileID {
		return defaultDescriptor(), nil
	}
	return models.DatabaseDescriptor{}, fmt.Errorf("database %q: %w", fileID, models.ErrNotFound)
}

// Create mints a new descriptor named "db_<epochMillis>.db", prepends it,
// and persists. Creations within the same millisecond are disambiguated by
// bumping the millisecond until the FileID is unused.
func (r *Registry) Create(displayName string) (models.DatabaseDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	ms := now.UnixMilli()
	fileID := fmt.Sprintf("db_%d.db", ms)
	for r.indexOf(fileID) >= 0 || fileID == models.DefaultFileID {
		ms++
		fileID = fmt.Sprintf("db_%d.db", ms)
	}

	desc := models.DatabaseDescriptor{
		DisplayName: displayName,
		FileID:      fileID,
		AddedAt:     now,
	}
	r.state.Databases = append([]models.DatabaseDescriptor{desc}, r.state.Databases...)
	if err := r.save(); err != nil {
		r.state.Databases = r.state.Databases[1:]
		return models.DatabaseDescriptor{}, err
	}
	return desc, nil
}

// RecordUsage upserts the descriptor for fileID: refreshes its display name
// and recency without ever duplicating an entry.
func (r *Registry) RecordUsage(fileID, displayName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc := models.DatabaseDescriptor{
		DisplayName: displayName,
		FileID:      fileID,
		AddedAt:     r.now(),
	}
	if i := r.indexOf(fileID); i >= 0 {
		r.state.Databases = append(r.state.Databases[:i], r.state.Databases[i+1:]...)
	}
	r.state.Databases = append([]models.DatabaseDescriptor{desc}, r.state.Databases...)
	return r.save()
}

// Active returns the active FileID, defaulting to the implicit primary
// database when none has been set.
func (r *Registry) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Active == "" {
		return models.DefaultFileID
	}
	return r.state.Active
}

// SetActive updates the active pointer. The descriptor must exist (the
// implicit default always does); otherwise ErrNotFound.
func (r *Registry) SetActive(fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(fileID) < 0 && fileID != models.DefaultFileID {
		return fmt.Errorf("database %q: %w", fileID, models.ErrNotFound)
	}
	prev := r.state.Active
	r.state.Active = fileID
	if err := r.save(); err != nil {
		r.state.Active = prev
		return err
	}
	return nil
}

// indexOf returns the position of fileID in the descriptor list, or -1.
// Callers must hold r.mu.
func (r *Registry) indexOf(fileID string) int {
	for i, d := range r.state.Databases {
		if d.FileID == fileID {
			return i
		}
	}
	return -1
}

// save writes the registry file atomically. Callers must hold r.mu.
func (r *Registry) save() error {
	data, err := json.MarshalIndent(r.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write registry: %w: %v", models.ErrPersistence, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace registry: %w: %v", models.ErrPersistence, err)
	}
	return nil
}

func defaultDescriptor() models.DatabaseDescriptor {
	return models.DatabaseDescriptor{
		DisplayName: DefaultDisplayName,
		FileID:      models.DefaultFileID,
	}
}
