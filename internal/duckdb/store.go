// Package duckdb persists reconciliation runs and their classified sites.
// Each run gets one row in "runs"; every common site of the run is appended
// to "site_classes".
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding run results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create results directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		run_id VARCHAR PRIMARY KEY,
		created_at TIMESTAMP,
		target_path VARCHAR,
		target_size BIGINT,
		target_mtime TIMESTAMP,
		reference_path VARCHAR,
		reference_size BIGINT,
		reference_mtime TIMESTAMP,
		legend BOOLEAN,
		target_build VARCHAR,
		reference_build VARCHAR,
		mismatch BOOLEAN,
		target_variants BIGINT,
		reference_variants BIGINT,
		matched BIGINT,
		switched BIGINT,
		complement BIGINT,
		complement_switch BIGINT,
		other BIGINT
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS site_classes (
		run_id VARCHAR,
		chrom VARCHAR,
		pos VARCHAR,
		display_chrom VARCHAR,
		target_ref VARCHAR,
		target_alt VARCHAR,
		reference_ref VARCHAR,
		reference_alt VARCHAR,
		class VARCHAR
	)`)
	return err
}
