package models

import "time"

// BackupFrequency is the cadence of scheduled backups.
type BackupFrequency string

const (
	FrequencyDaily   BackupFrequency = "daily"
	FrequencyWeekly  BackupFrequency = "weekly"
	FrequencyMonthly BackupFrequency = "monthly"
)

// Valid reports whether f is one of the known cadences.
func (f BackupFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// DefaultFileID is the implicit primary database, present even when the
// user never explicitly created one.
const DefaultFileID = "expenses.db"

// Settings is the per-database configuration singleton. It is created with
// defaults when a database is first opened and persisted alongside it.
type Settings struct {
	// CompanyName is the company profile name shown on reports.
	CompanyName string `json:"companyName"`

	// AdminName is the administrator profile name.
	AdminName string `json:"adminName"`

	// BackupEnabled gates the backup scheduler; when false the scheduler
	// never reports due.
	BackupEnabled bool `json:"backupEnabled"`

	// BackupFrequency is the scheduled backup cadence.
	BackupFrequency BackupFrequency `json:"backupFrequency"`

	// BackupTime is the scheduled time of day, "HH:mm" (24-hour).
	BackupTime string `json:"backupTime"`

	// LastBackupAt is the instant of the last successful backup, nil if a
	// backup has never completed.
	LastBackupAt *time.Time `json:"lastBackupAt,omitempty"`

	// PrimaryDB is the FileID of the database the user treats as primary.
	PrimaryDB string `json:"primaryDb"`
}

// DefaultSettings returns the settings written on first database creation.
func DefaultSettings() Settings {
	return Settings{
		BackupEnabled:   false,
		BackupFrequency: FrequencyDaily,
		BackupTime:      "09:00",
		PrimaryDB:       DefaultFileID,
	}
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged
// by Merge, so callers can update a single field without reading the rest.
type SettingsPatch struct {
	CompanyName     *string
	AdminName       *string
	BackupEnabled   *bool
	BackupFrequency *BackupFrequency
	BackupTime      *string
	LastBackupAt    *time.Time
	PrimaryDB       *string
}

// Merge applies every non-nil patch field to s.
func (s *Settings) Merge(patch SettingsPatch) {
	if patch.CompanyName != nil {
		s.CompanyName = *patch.CompanyName
	}
	if patch.AdminName != nil {
		s.AdminName = *patch.AdminName
	}
	if patch.BackupEnabled != nil {
		s.BackupEnabled = *patch.BackupEnabled
	}
	if patch.BackupFrequency != nil {
		s.BackupFrequency = *patch.BackupFrequency
	}
	if patch.BackupTime != nil {
		s.BackupTime = *patch.BackupTime
	}
	if patch.LastBackupAt != nil {
		t := *patch.LastBackupAt
		s.LastBackupAt = &t
	}
	if patch.PrimaryDB != nil {
		s.PrimaryDB = *patch.PrimaryDB
	}
}
