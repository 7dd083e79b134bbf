package repo

import (
	"context"

	"github.com/anthropics/groupwarden/internal/biz/domain"
)

// SettingsRepo persists the shared settings document.
type SettingsRepo interface {
	// Load returns the stored document. A missing or corrupt document is
	// not an error: implementations log the condition and return defaults.
	Load(ctx context.Context) (*domain.Settings, error)

	// Save fully overwrites the stored document. A save failure must fail
	// the mutation that triggered it.
	Save(ctx context.Context, settings *domain.Settings) error

	Close() error
}
