// Package localstore is the local-first embedded variant of the data
// access layer. It mirrors the server-side book, tag, progress, and
// session operations against a standalone SQLite file using raw
// parameterized SQL, with explicit migration tracking instead of
// auto-migration.
package localstore

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the embedded SQLite handle. It is constructed explicitly and
// passed to callers; there is no package-level connection.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the local database at path, enables
// foreign keys and WAL mode, and applies any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_busy_timeout=5000&_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(Migrations); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("Local store initialized at %s", path)
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
