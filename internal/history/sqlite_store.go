package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"autodeploy/internal/security"
)

// SQLiteStore keeps history in a SQLite database, one row per
// (target, position).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for SQLite (single writer)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// The file exists once the schema is written
	if err := os.Chmod(dbPath, security.PermDBFile); err != nil && !os.IsNotExist(err) {
		db.Close()
		return nil, fmt.Errorf("failed to set database permissions: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// initSchema creates the location table
func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS target_locations (
			name TEXT NOT NULL,
			position INTEGER NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (name, position)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// Load returns every target's locations ordered by position.
func (s *SQLiteStore) Load(ctx context.Context) (Locations, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, path
		FROM target_locations
		ORDER BY name, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query target locations: %w", err)
	}
	defer rows.Close()

	locations := Locations{}
	for rows.Next() {
		var name, path string
		if err := rows.Scan(&name, &path); err != nil {
			return nil, fmt.Errorf("failed to scan target location: %w", err)
		}
		locations[name] = append(locations[name], path)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return locations, nil
}

// Persist replaces the stored history in one transaction.
func (s *SQLiteStore) Persist(ctx context.Context, locations Locations) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM target_locations`); err != nil {
		return fmt.Errorf("failed to clear target locations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO target_locations (name, position, path)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, name := range locations.Names() {
		for position, path := range locations[name] {
			if _, err = stmt.ExecContext(ctx, name, position, path); err != nil {
				return fmt.Errorf("failed to insert location for %q: %w", name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
