package agent

import (
	"context"
	"database/sql"
	"fmt"
)

// nameKey is the fixed storage key for the visitor's display name, the only
// field the client persists.
const nameKey = "display_name"

// ProfileStore is the durable client-side storage for the visitor's display
// name. It is read once on startup to pre-fill the name prompt and written
// only when the visitor submits a name.
type ProfileStore interface {
	LoadName(ctx context.Context) (string, error)
	SaveName(ctx context.Context, name string) error
}

type sqliteProfileStore struct {
	db *sql.DB
}

func NewSQLiteProfileStore(db *sql.DB) ProfileStore {
	return &sqliteProfileStore{db: db}
}

// LoadName returns the persisted display name, or the empty string when no
// name has ever been stored.
func (s *sqliteProfileStore) LoadName(ctx context.Context) (string, error) {
	query := "SELECT value FROM profile WHERE key = ?"
	row := s.db.QueryRowContext(ctx, query, nameKey)
	var name string
	if err := row.Scan(&name); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("could not load display name: %w", err)
	}
	return name, nil
}

func (s *sqliteProfileStore) SaveName(ctx context.Context, name string) error {
	query := "INSERT INTO profile (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"
	if _, err := s.db.ExecContext(ctx, query, nameKey, name); err != nil {
		return fmt.Errorf("could not save display name: %w", err)
	}
	return nil
}
