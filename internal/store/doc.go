// Package store indexes flushed match segments in SQLite.
//
// Every flushed segment is written as one row in segments plus one row per
// folded frame in frames, inside a single transaction. The database lives in
// the output directory next to picks.txt and is only written by the pipeline
// consumer; the CLI opens it read-mostly for listings.
//
// Schema changes bump schemaVersion in schema.go. An existing database with a
// different version is rejected with ErrSchemaMismatch instead of migrated.
package store
