package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/secretsanta/internal/participant"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - participants table with unique positions
//
// Databases at version 0 are new; schema.sql creates them at version 1.
const currentSchemaVersion = 1

// SQLite stores the registry in a single table.
// The connection pool is limited to one connection; the Registry already
// serializes writers.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies pragmas and
// migrations. A file that is not a SQLite database reports
// participant.ErrStorageCorrupt.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", classifySQLiteError(err))
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", classifySQLiteError(err))
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", classifySQLiteError(err))
	}

	return &SQLite{db: db}, nil
}

// Load returns all participants ordered by position.
func (s *SQLite) Load(ctx context.Context) ([]participant.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identity, name FROM participants
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", classifySQLiteError(err))
	}
	defer rows.Close()

	var ps []participant.Participant
	for rows.Next() {
		var p participant.Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("load participants: scan: %w", err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load participants: %w", classifySQLiteError(err))
	}
	return ps, nil
}

// Save rewrites the table with ps inside one transaction.
func (s *SQLite) Save(ctx context.Context, ps []participant.Participant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save participants: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM participants`); err != nil {
		return fmt.Errorf("save participants: delete: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO participants (identity, name, position)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save participants: prepare: %w", err)
	}
	defer stmt.Close()

	for i, p := range ps {
		if _, err := stmt.ExecContext(ctx, string(p.ID), p.Name, i+1); err != nil {
			return fmt.Errorf("save participants: insert %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save participants: commit: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000", // first, so the others wait out concurrent openers
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations stamps new databases and refuses ones written by a newer
// schema. Future versions add their steps here.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if version == currentSchemaVersion {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// classifySQLiteError marks "not a database" and corruption errors as
// participant.ErrStorageCorrupt.
func classifySQLiteError(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrNotADB || se.Code == sqlite3.ErrCorrupt) {
		return fmt.Errorf("%w: %v", participant.ErrStorageCorrupt, err)
	}
	return err
}
