package models

import "time"

// BackupArtifact is an immutable JSON snapshot of one database: its records
// and its settings at the moment the backup ran. Artifacts are written once
// and never mutated.
type BackupArtifact struct {
	CreatedAt    time.Time       `json:"createdAt"`
	SourceFileID string          `json:"sourceFileId"`
	Records      []ExpenseRecord `json:"records"`
	Settings     Settings        `json:"settings"`
}
