// Package migrations holds the forward-only schema for the credential store.
// Files are named NNN_description.up.sql and applied in version order.
package migrations

import "embed"

// Up holds every forward migration.
//
//go:embed *.up.sql
var Up embed.FS
