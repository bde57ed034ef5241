// Package backup implements the pull-based backup scheduler: due-ness is a
// pure computation over settings, the clock, and the last-run timestamp,
// with no background timer. Host collaborators poll CheckDue at moments
// they consider relevant (settings change, app foreground) and trigger
// runs explicitly.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thespacelab/expenseledger/internal/models"
	"github.com/thespacelab/expenseledger/internal/registry"
	"github.com/thespacelab/expenseledger/internal/storage"
	"github.com/thespacelab/expenseledger/internal/store"
)

// State is the scheduler's per-run lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateDue     State = "due"
	StateRunning State = "running"
)

// Result reports backup outcomes. Created and Failed are counted
// independently: a failure on one database never aborts attempts on the
// others, and partial failure is informational, not an error.
type Result struct {
	Created int
	Failed  int
}

// Scheduler decides when backups are due and executes them. Once a run has
// started it runs to completion; there is no cancellation or timeout.
type Scheduler struct {
	reg     *registry.Registry
	st      *store.Store
	open    storage.Opener
	dataDir string
	dir     string

	mu    sync.Mutex
	state State

	now func() time.Time
}

// New creates a scheduler writing artifacts to dir. dataDir is where the
// physical database files live; non-active databases are read through open.
func New(reg *registry.Registry, st *store.Store, open storage.Opener, dataDir, dir string) *Scheduler {
	return &Scheduler{
		reg:     reg,
		st:      st,
		open:    open,
		dataDir: dataDir,
		dir:     dir,
		state:   StateIdle,
		now:     time.Now,
	}
}

// State returns the scheduler's current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CheckDue recomputes due-ness for the active database from its settings
// and the clock. Disabled backups are never due, regardless of the last-run
// timestamp. CheckDue does not change state while a run is in progress.
func (s *Scheduler) CheckDue() bool {
	settings := s.st.GetSettings()

	due := false
	if settings.BackupEnabled {
		last := time.Unix(0, 0)
		if settings.LastBackupAt != nil {
			last = *settings.LastBackupAt
		}
		next := nextScheduled(last, settings.BackupFrequency, settings.BackupTime)
		due = !s.now().Before(next)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return false
	}
	if due {
		s.state = StateDue
	} else {
		s.state = StateIdle
	}
	return due
}

// RunScheduled performs the scheduled backup of the active database. It is
// a no-op returning an empty result when the backup is not due.
func (s *Scheduler) RunScheduled(ctx context.Context) (Result, error) {
	if !s.CheckDue() {
		return Result{}, nil
	}
	if !s.begin() {
		return Result{}, nil
	}
	defer s.finish()

	var res Result
	if err := s.backupActive(ctx); err != nil {
		slog.Warn("scheduled backup failed", "database", s.st.ActiveFileID(), "error", err)
		backupsFailed.Inc()
		res.Failed++
	} else {
		backupsCreated.Inc()
		res.Created++
	}
	return res, nil
}

// RunManualBackupNow ignores the due gate and attempts a backup of every
// registered database immediately. Failures are counted per database; the
// only hard failure is having zero databases to attempt.
func (s *Scheduler) RunManualBackupNow(ctx context.Context) (Result, error) {
	if !s.begin() {
		return Result{}, nil
	}
	defer s.finish()

	descriptors := s.reg.List()
	if len(descriptors) == 0 {
		return Result{}, fmt.Errorf("no databases to back up: %w", models.ErrNotFound)
	}

	var res Result
	active := s.st.ActiveFileID()
	for _, desc := range descriptors {
		var err error
		if desc.FileID == active {
			err = s.backupActive(ctx)
		} else {
			err = s.backupFile(ctx, desc.FileID)
		}
		if err != nil {
			slog.Warn("backup failed", "database", desc.FileID, "error", err)
			backupsFailed.Inc()
			res.Failed++
			continue
		}
		backupsCreated.Inc()
		res.Created++
	}
	slog.Info("manual backup finished", "created", res.Created, "failed", res.Failed)
	return res, nil
}

// Artifact describes one backup file on disk.
type Artifact struct {
	Name      string
	CreatedAt time.Time
}

// ListRecent returns the newest n artifacts in the backup directory, newest
// first.
func (s *Scheduler) ListRecent(n int) ([]Artifact, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var artifacts []Artifact
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), "_backup_") || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		createdAt, ok := artifactCreatedAt(e.Name())
		if !ok {
			info, err := e.Info()
			if err != nil {
				continue
			}
			createdAt = info.ModTime()
		}
		artifacts = append(artifacts, Artifact{Name: e.Name(), CreatedAt: createdAt})
	}
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt)
	})
	if n > 0 && len(artifacts) > n {
		artifacts = artifacts[:n]
	}
	return artifacts, nil
}

// begin transitions to running; false when a run is already in progress.
func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return false
	}
	s.state = StateRunning
	return true
}

func (s *Scheduler) finish() {
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}

// backupActive snapshots the active database through the record store, so
// the artifact sees a consistent view even while mutations continue; a
// mutation arriving mid-backup lands in the next artifact, not this one.
func (s *Scheduler) backupActive(ctx context.Context) error {
	records := s.st.ExportAll()
	settings := s.st.GetSettings()
	createdAt := s.now()

	if err := s.writeArtifact(s.st.ActiveFileID(), createdAt, records, settings); err != nil {
		return err
	}
	return s.st.SetSettings(ctx, models.SettingsPatch{LastBackupAt: &createdAt})
}

// backupFile snapshots a non-active database directly from storage.
func (s *Scheduler) backupFile(ctx context.Context, fileID string) error {
	db, err := s.open(filepath.Join(s.dataDir, fileID))
	if err != nil {
		return fmt.Errorf("open %s: %w", fileID, err)
	}
	defer db.Close()

	records, err := db.LoadRecords(ctx)
	if err != nil {
		return fmt.Errorf("load records from %s: %w", fileID, err)
	}
	settings, ok, err := db.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings from %s: %w", fileID, err)
	}
	if !ok {
		settings = models.DefaultSettings()
	}

	createdAt := s.now()
	if err := s.writeArtifact(fileID, createdAt, records, settings); err != nil {
		return err
	}

	settings.LastBackupAt = &createdAt
	return db.SaveSettings(ctx, settings)
}

// writeArtifact writes one immutable JSON snapshot, named deterministically
// from the source FileID and the creation instant, via temp file + rename.
func (s *Scheduler) writeArtifact(fileID string, createdAt time.Time, records []models.ExpenseRecord, settings models.Settings) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	artifact := models.BackupArtifact{
		CreatedAt:    createdAt,
		SourceFileID: fileID,
		Records:      records,
		Settings:     settings,
	}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	path := filepath.Join(s.dir, ArtifactName(fileID, createdAt))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write artifact: %w: %v", models.ErrPersistence, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize artifact: %w: %v", models.ErrPersistence, err)
	}
	slog.Info("backup artifact written", "database", fileID, "path", path, "records", len(records))
	return nil
}

// ArtifactName is the deterministic artifact file name for one backup.
func ArtifactName(fileID string, createdAt time.Time) string {
	base := strings.TrimSuffix(fileID, ".db")
	return fmt.Sprintf("%s_backup_%s.json", base, createdAt.UTC().Format(artifactTimeLayout))
}

const artifactTimeLayout = "20060102T150405"

// artifactCreatedAt recovers the creation instant embedded in an artifact
// file name.
func artifactCreatedAt(name string) (time.Time, bool) {
	i := strings.LastIndex(name, "_backup_")
	if i < 0 {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(name[i+len("_backup_"):], ".json")
	t, err := time.Parse(artifactTimeLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
