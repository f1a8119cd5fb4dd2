// Package database provides SQLite-based run history for salesbot.
//
// Every run is stored with its full report as JSON, plus one row per
// attempted submission so that past failures can be queried directly.
// The database is a single file in the output directory, opened through
// modernc.org/sqlite so that no cgo toolchain is needed.
package database
