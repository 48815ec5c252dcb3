// Package store persists timetable records, admin profiles and the schedule
// extraction cache in a single SQLite database.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Schema for the timetable service tables. Applied on Open.
const schema = `
CREATE TABLE IF NOT EXISTS timetables (
	id TEXT PRIMARY KEY,
	pole TEXT NOT NULL,
	pole_color TEXT NOT NULL DEFAULT '',
	specialty TEXT NOT NULL DEFAULT '',
	level TEXT NOT NULL DEFAULT '',
	group_name TEXT NOT NULL,
	pdf_url TEXT NOT NULL DEFAULT '#',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_timetables_pole ON timetables(pole);

CREATE TABLE IF NOT EXISTS admins (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	role TEXT NOT NULL,
	allowed_poles TEXT NOT NULL DEFAULT '',
	is_activated INTEGER NOT NULL DEFAULT 0,
	last_login TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS schedule_cache (
	cache_key TEXT PRIMARY KEY,
	slots TEXT NOT NULL,
	cached_at TEXT NOT NULL
);
`

// Store is the SQLite-backed persistence layer.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating it and its tables if needed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc.org/sqlite serializes writers; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for collaborators sharing the database.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }
