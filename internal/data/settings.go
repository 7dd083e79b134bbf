package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anthropics/groupwarden/internal/biz/domain"
	"github.com/anthropics/groupwarden/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// settingsRepo implements the Settings repository on sqlite. The whole
// document is stored as one JSON row so a save is always a full overwrite.
type settingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo creates a new Settings repository.
func NewSettingsRepo(dbPath string) (repo.SettingsRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			document TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &settingsRepo{db: db}, nil
}

// Load reads the stored document. A missing row or a document that does
// not parse yields defaults rather than an error.
func (r *settingsRepo) Load(ctx context.Context) (*domain.Settings, error) {
	row := r.db.QueryRowContext(ctx, `SELECT document FROM settings WHERE id = 1`)

	var doc string
	err := row.Scan(&doc)
	if err == sql.ErrNoRows {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}

	settings := domain.DefaultSettings()
	if err := json.Unmarshal([]byte(doc), settings); err != nil {
		fmt.Printf("[Settings] Stored document is corrupt, falling back to defaults: %v\n", err)
		return domain.DefaultSettings(), nil
	}
	settings.Normalize()
	return settings, nil
}

// Save fully overwrites the stored document.
func (r *settingsRepo) Save(ctx context.Context, settings *domain.Settings) error {
	doc, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO settings (id, document, updated_at)
		VALUES (1, ?, ?)
	`, string(doc), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *settingsRepo) Close() error {
	return r.db.Close()
}
