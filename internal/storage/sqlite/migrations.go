package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on open to ensure tables exist.
//
// Records keep an explicit position column so listing preserves insertion
// order without relying on rowid semantics. Amounts are stored as TEXT:
// duplicate detection compares amounts exactly, which REAL cannot guarantee.
const schema = `
CREATE TABLE IF NOT EXISTS records (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    date TEXT NOT NULL,
    description TEXT NOT NULL,
    category TEXT NOT NULL,
    merchant TEXT NOT NULL,
    paid_through TEXT NOT NULL,
    income TEXT NOT NULL,
    expense TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    data TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_position ON records(position);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
