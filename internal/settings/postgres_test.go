package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinic-visit-server/internal/domain"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.MonitorPingsOption(true),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectPing()
	store, err := NewPostgresStore(db)
	require.NoError(t, err)
	return store, mock
}

func TestNewPostgresStore_NilConnection(t *testing.T) {
	_, err := NewPostgresStore(nil)
	require.Error(t, err)
}

func TestPostgresStore_LoadSectionConfig(t *testing.T) {
	store, mock := newMockStore(t)

	stored := domain.DefaultSectionConfig()
	stored.Toggle(domain.CategoryNotes, false)
	raw, err := json.Marshal(stored)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT section_config FROM report_settings").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"section_config"}).AddRow(raw))

	cfg, err := store.LoadSectionConfig(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.True(t, cfg.Excluded(domain.CategoryNotes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadSectionConfig_NoRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT section_config FROM report_settings").
		WithArgs("doc-1").
		WillReturnError(sql.ErrNoRows)

	cfg, err := store.LoadSectionConfig(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSectionConfig(), cfg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadSectionConfig_RepairsPartialRow(t *testing.T) {
	store, mock := newMockStore(t)

	// A row persisted before new categories were added: missing keys come back
	// enabled at their canonical position.
	partial := domain.SectionConfig{
		domain.CategoryComplaints: {Enabled: false, Order: 3},
	}
	raw, err := json.Marshal(partial)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT section_config FROM report_settings").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"section_config"}).AddRow(raw))

	cfg, err := store.LoadSectionConfig(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Len(t, cfg, len(domain.Categories()))
	assert.True(t, cfg.Excluded(domain.CategoryComplaints))
	assert.False(t, cfg.Excluded(domain.CategoryNotes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSectionConfig(t *testing.T) {
	store, mock := newMockStore(t)

	cfg := domain.DefaultSectionConfig()
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO report_settings").
		WithArgs("doc-1", raw, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SaveSectionConfig(context.Background(), "doc-1", cfg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RenderOptions(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	opts := domain.DefaultRenderOptions()
	opts.PaperSize = "Letter"
	raw, err := json.Marshal(opts)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO report_settings").
		WithArgs("doc-1", raw, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.SaveRenderOptions(ctx, "doc-1", opts))

	mock.ExpectQuery("SELECT render_options FROM report_settings").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"render_options"}).AddRow(raw))

	loaded, err := store.LoadRenderOptions(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, opts, loaded)
	assert.NoError(t, mock.ExpectationsWereMet())
}
