package models

import "errors"

// Error taxonomy shared across the data layer. Callers test with errors.Is;
// implementations wrap these with context via fmt.Errorf and %w.
var (
	// ErrNotFound: a database or descriptor that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrParseFailure: a total structural parse failure, such as an
	// unreadable spreadsheet container. Per-field anomalies are absorbed
	// to defaults and never surface this.
	ErrParseFailure = errors.New("parse failure")

	// ErrPersistence: an underlying storage write did not durably
	// complete.
	ErrPersistence = errors.New("persistence failure")
)
