// Package sqlite provides the credential store on top of SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Secrets are sealed with the secret package before they
// reach the database, keyed by a service and account pair.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.gitscope/data/credentials.db
package sqlite
