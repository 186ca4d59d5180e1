// Package settings persists per-doctor report preferences: section
// visibility/order and default render options. Both backends store the
// preferences as JSON documents keyed by doctor ID, so schema changes in the
// preference shapes do not require migrations.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/clinic-visit-server/internal/domain"
)

// SQLiteStore implements domain.SettingsStore using SQLite. It is the backend
// for single-machine deployments with no external database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite settings store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS report_settings (
		doctor_id TEXT PRIMARY KEY,
		section_config TEXT NOT NULL DEFAULT '{}',
		render_options TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.Exec(schema)
	return err
}

// LoadSectionConfig returns the stored section config for a doctor, or the
// default config when no row exists yet.
func (s *SQLiteStore) LoadSectionConfig(ctx context.Context, doctorID string) (domain.SectionConfig, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT section_config FROM report_settings WHERE doctor_id = ?",
		doctorID,
	).Scan(&raw)

	if err == sql.ErrNoRows {
		return domain.DefaultSectionConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load section config: %w", err)
	}

	cfg := domain.SectionConfig{}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode section config: %w", err)
	}
	return cfg.Normalize(), nil
}

// SaveSectionConfig stores the section config for a doctor.
func (s *SQLiteStore) SaveSectionConfig(ctx context.Context, doctorID string, cfg domain.SectionConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode section config: %w", err)
	}
	return s.upsert(ctx, doctorID, "section_config", string(raw))
}

// LoadRenderOptions returns the stored render options for a doctor, or the
// defaults when no row exists yet.
func (s *SQLiteStore) LoadRenderOptions(ctx context.Context, doctorID string) (domain.RenderOptions, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT render_options FROM report_settings WHERE doctor_id = ?",
		doctorID,
	).Scan(&raw)

	if err == sql.ErrNoRows {
		return domain.DefaultRenderOptions(), nil
	}
	if err != nil {
		return domain.RenderOptions{}, fmt.Errorf("failed to load render options: %w", err)
	}

	opts := domain.DefaultRenderOptions()
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return domain.RenderOptions{}, fmt.Errorf("failed to decode render options: %w", err)
	}
	return opts, nil
}

// SaveRenderOptions stores the default render options for a doctor.
func (s *SQLiteStore) SaveRenderOptions(ctx context.Context, doctorID string, opts domain.RenderOptions) error {
	raw, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to encode render options: %w", err)
	}
	return s.upsert(ctx, doctorID, "render_options", string(raw))
}

// upsert writes one JSON column for a doctor, inserting the row on first use.
// The column name is always one of the two schema constants above, never user
// input.
func (s *SQLiteStore) upsert(ctx context.Context, doctorID, column, value string) error {
	now := time.Now()

	query := fmt.Sprintf(`
		INSERT INTO report_settings (doctor_id, %s, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (doctor_id) DO UPDATE SET
			%s = excluded.%s,
			updated_at = excluded.updated_at
	`, column, column, column)

	if _, err := s.db.ExecContext(ctx, query, doctorID, value, now, now); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
