// Package models defines the core domain models for the expense ledger.
//
// # Models
//
//   - ExpenseRecord: one row of financial activity (income or expense)
//   - Settings: per-database configuration, including the backup policy
//   - DatabaseDescriptor: metadata identifying one physical database file
//   - BackupArtifact: an immutable JSON snapshot of one database
//
// # Design Principles
//
//  1. **Fixed structures**: Settings is a versionable struct with explicit
//     optional fields, not a loose key/value bag, so a typo in a field name
//     is a compile error rather than a silently ignored key.
//  2. **Exact money**: amounts are decimal values, never floats, because
//     duplicate detection compares amounts for exact equality.
//  3. **Avoid circular references**: models reference each other by FileID
//     strings, not pointers.
package models
