// Package persistence stores the engine's collections as JSON snapshots in
// sqlite and replays them at startup. Snapshots are written off the mutation
// path, in response to commit notifications on the event bus.
package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/assetdesk/assetdesk/internal/application/port"
	"github.com/assetdesk/assetdesk/pkg/database"
)

// SnapshotRepository implements port.SnapshotStore on a sqlite key/value table
type SnapshotRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSnapshotRepository creates the repository and ensures its schema exists
func NewSnapshotRepository(db *database.DB, logger *zap.Logger) (*SnapshotRepository, error) {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}

	return &SnapshotRepository{db: db, logger: logger}, nil
}

// Save writes one collection snapshot under its key
func (r *SnapshotRepository) Save(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO snapshots (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, key, data); err != nil {
		r.logger.Error("Failed to save snapshot", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to save snapshot %s: %w", key, err)
	}

	return nil
}

// Load reads one collection snapshot by key
func (r *SnapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM snapshots WHERE key = ?`

	var data []byte
	err := r.db.QueryRowContext(ctx, query, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %s: %w", key, port.ErrKeyNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to load snapshot", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to load snapshot %s: %w", key, err)
	}

	return data, nil
}
