package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/clinic-visit-server/internal/domain"
)

// PostgresStore implements domain.SettingsStore using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL settings store.
// It expects the database and schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL settings store from a
// connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// LoadSectionConfig returns the stored section config for a doctor, or the
// default config when no row exists yet.
func (s *PostgresStore) LoadSectionConfig(ctx context.Context, doctorID string) (domain.SectionConfig, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT section_config FROM report_settings WHERE doctor_id = $1",
		doctorID,
	).Scan(&raw)

	if err == sql.ErrNoRows {
		return domain.DefaultSectionConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load section config: %w", err)
	}

	cfg := domain.SectionConfig{}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode section config: %w", err)
	}
	return cfg.Normalize(), nil
}

// SaveSectionConfig stores the section config for a doctor.
func (s *PostgresStore) SaveSectionConfig(ctx context.Context, doctorID string, cfg domain.SectionConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode section config: %w", err)
	}

	query := `
		INSERT INTO report_settings (doctor_id, section_config, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (doctor_id) DO UPDATE SET
			section_config = EXCLUDED.section_config,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, doctorID, raw, time.Now()); err != nil {
		return fmt.Errorf("failed to save section config: %w", err)
	}
	return nil
}

// LoadRenderOptions returns the stored render options for a doctor, or the
// defaults when no row exists yet.
func (s *PostgresStore) LoadRenderOptions(ctx context.Context, doctorID string) (domain.RenderOptions, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT render_options FROM report_settings WHERE doctor_id = $1",
		doctorID,
	).Scan(&raw)

	if err == sql.ErrNoRows {
		return domain.DefaultRenderOptions(), nil
	}
	if err != nil {
		return domain.RenderOptions{}, fmt.Errorf("failed to load render options: %w", err)
	}

	opts := domain.DefaultRenderOptions()
	if err := json.Unmarshal(raw, &opts); err != nil {
		return domain.RenderOptions{}, fmt.Errorf("failed to decode render options: %w", err)
	}
	return opts, nil
}

// SaveRenderOptions stores the default render options for a doctor.
func (s *PostgresStore) SaveRenderOptions(ctx context.Context, doctorID string, opts domain.RenderOptions) error {
	raw, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to encode render options: %w", err)
	}

	query := `
		INSERT INTO report_settings (doctor_id, render_options, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (doctor_id) DO UPDATE SET
			render_options = EXCLUDED.render_options,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, doctorID, raw, time.Now()); err != nil {
		return fmt.Errorf("failed to save render options: %w", err)
	}
	return nil
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
