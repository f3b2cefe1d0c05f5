// Package database provides SQLite-based storage for the run history:
// a cache of fetched pages and an audit trail of highlight runs.
// Rewritten documents and markers are never stored; highlights do not
// persist across page loads, only the record that a run happened.
package database
