package localstore

import (
	"fmt"
	"log"
	"strings"
)

// Migration is one schema change, identified by a stable id. Applied ids
// are recorded in schema_migrations; a migration never runs twice.
type Migration struct {
	ID  string
	SQL string
}

// Migrations is the ordered schema history of the local store.
var Migrations = []Migration{
	{
		ID: "0001_initial_schema",
		SQL: `
			CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE TABLE IF NOT EXISTS books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id TEXT NOT NULL,
				title TEXT NOT NULL,
				author TEXT NOT NULL DEFAULT '',
				isbn TEXT NOT NULL DEFAULT '',
				publisher TEXT NOT NULL DEFAULT '',
				publication_year INTEGER NOT NULL DEFAULT 0,
				genre TEXT NOT NULL DEFAULT '',
				cover_image_url TEXT NOT NULL DEFAULT '',
				page_count INTEGER NOT NULL DEFAULT 0,
				description TEXT NOT NULL DEFAULT '',
				language TEXT NOT NULL DEFAULT 'en',
				format TEXT NOT NULL DEFAULT '',
				condition TEXT NOT NULL DEFAULT '',
				physical_location TEXT NOT NULL DEFAULT '',
				date_acquired DATETIME,
				status TEXT NOT NULL DEFAULT 'unread',
				is_favorite INTEGER NOT NULL DEFAULT 0,
				date_added DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE TABLE IF NOT EXISTS book_tags (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				book_id INTEGER NOT NULL,
				tag TEXT NOT NULL,
				UNIQUE(book_id, tag)
			);
			CREATE TABLE IF NOT EXISTS reading_progress (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				book_id INTEGER NOT NULL,
				user_id TEXT NOT NULL,
				current_page INTEGER NOT NULL DEFAULT 0,
				total_pages INTEGER NOT NULL DEFAULT 0,
				progress_percentage REAL NOT NULL DEFAULT 0,
				started_at DATETIME,
				target_completion_date DATETIME,
				completed_at DATETIME,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(book_id, user_id)
			);
			CREATE TABLE IF NOT EXISTS reading_sessions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				book_id INTEGER NOT NULL,
				user_id TEXT NOT NULL,
				start_page INTEGER,
				end_page INTEGER,
				start_time DATETIME,
				end_time DATETIME,
				duration_minutes INTEGER,
				notes TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
	{
		ID: "0002_lookup_indexes",
		SQL: `
			CREATE INDEX IF NOT EXISTS idx_books_user_status ON books(user_id, status);
			CREATE INDEX IF NOT EXISTS idx_books_user_added ON books(user_id, date_added);
			CREATE INDEX IF NOT EXISTS idx_sessions_book ON reading_sessions(book_id, user_id);
		`,
	},
}

// migrate applies every not-yet-applied migration in order. Each
// migration's statements and its schema_migrations record run inside one
// transaction, so a migration is either fully applied and recorded or not
// applied at all.
func (s *Store) migrate(migrations []Migration) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := s.db.Query(`SELECT id FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		applied[id] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.ID] {
			continue
		}
		if err := s.applyMigration(m); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}
		log.Printf("Migration applied: %s", m.ID)
	}
	return nil
}

func (s *Store) applyMigration(m Migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(m.SQL) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("statement %q: %w", stmt, err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (id) VALUES (?)`, m.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// splitStatements breaks a migration script into individual statements.
// Statements in the schema history never contain embedded semicolons.
func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		stmt := strings.TrimSpace(part)
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
