package store

import (
	"context"
	"errors"
	"fmt"

	"alumni-engine/internal/config"
	"alumni-engine/internal/domain"
)

// ProfileStore persists canonical profiles keyed by external id.
// Upsert merges by presence: empty fields never overwrite stored values.
type ProfileStore interface {
	Upsert(ctx context.Context, p domain.CanonicalProfile) error
	Get(ctx context.Context, externalID string) (domain.CanonicalProfile, bool, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

var ErrMissingID = errors.New("profile has no external id")

// StoreError wraps every persistence failure so callers can tell it apart
// from resolution and fetch failures.
type StoreError struct {
	Op         string
	ExternalID string
	Err        error
}

func (e *StoreError) Error() string {
	if e.ExternalID == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %q: %v", e.Op, e.ExternalID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// OpenProfiles opens the profile store selected by cfg.Store.Driver.
// The sqlite database is shared with the resolution cache.
func OpenProfiles(ctx context.Context, cfg config.Config, sqlite *DB) (ProfileStore, error) {
	switch cfg.Store.Driver {
	case "", "sqlite":
		if sqlite == nil {
			return nil, errors.New("sqlite store not opened")
		}
		return sqlite, nil
	case "postgres":
		return OpenPostgres(ctx, cfg.Store.PostgresDSN)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
