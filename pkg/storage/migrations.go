package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: alert journal
	`CREATE TABLE IF NOT EXISTS alert_records (
		id          TEXT PRIMARY KEY,
		kind        TEXT NOT NULL CHECK(kind IN ('cost', 'inventory')),
		title       TEXT NOT NULL,
		subject     TEXT NOT NULL,
		no_alerts   INTEGER NOT NULL DEFAULT 0,
		evaluated   INTEGER NOT NULL DEFAULT 0,
		skipped     INTEGER NOT NULL DEFAULT 0,
		exceeded    INTEGER NOT NULL DEFAULT 0,
		threshold   REAL NOT NULL DEFAULT 0.0,
		report      TEXT NOT NULL DEFAULT '{}',
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_kind ON alert_records(kind);
	CREATE INDEX IF NOT EXISTS idx_alerts_recorded_at ON alert_records(recorded_at);`,
}

// runMigrations applies pending schema migrations.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	for i := currentVersion; i < len(migrations); i++ {
		if err := applyMigration(db, i+1, migrations[i]); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(db *sql.DB, version int, stmt string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("run migration %d: %w", version, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("record migration %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", version, err)
	}
	return nil
}
