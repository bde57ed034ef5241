package models

import "time"

// DatabaseDescriptor identifies one physical database file known to the
// registry.
type DatabaseDescriptor struct {
	// DisplayName is the user-facing name of the database.
	DisplayName string `json:"displayName"`

	// FileID is the physical file name, e.g. "db_1700000000000.db".
	// Unique across the registry.
	FileID string `json:"fileId"`

	// AddedAt is when the descriptor entered the registry (or was last
	// refreshed by usage).
	AddedAt time.Time `json:"addedAt"`
}
