// Package port declares the interfaces the application layer expects from
// infrastructure.
package port

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when a snapshot key has never been written
var ErrKeyNotFound = errors.New("snapshot key not found")

// SnapshotStore is the durable key-value persistence boundary. Each
// collection is serialized as one JSON document under a stable key.
// Writes are last-write-wins; the engine never reads through it after boot.
type SnapshotStore interface {
	// Save stores the serialized collection under key
	Save(ctx context.Context, key string, data []byte) error

	// Load returns the serialized collection stored under key, or
	// ErrKeyNotFound if the key has never been written
	Load(ctx context.Context, key string) ([]byte, error)
}
