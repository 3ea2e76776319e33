// Package file provides the TOML configuration store.
//
// Keys are addressed in dot notation ("oauth.client_id") and written back
// as nested tables. Watch reloads the store when another process edits
// the file.
package file
