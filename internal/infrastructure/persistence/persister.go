package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/assetdesk/assetdesk/internal/application/dispatcher"
	"github.com/assetdesk/assetdesk/internal/application/port"
	"github.com/assetdesk/assetdesk/internal/application/store"
	"github.com/assetdesk/assetdesk/internal/domain/event"
)

// Persister saves store snapshots whenever a mutation is committed. It
// subscribes to the event bus, so mutations never wait on disk I/O.
type Persister struct {
	store     *store.Store
	snapshots port.SnapshotStore
	logger    *zap.Logger
}

// NewPersister creates a persister bound to the given store
func NewPersister(s *store.Store, snapshots port.SnapshotStore, logger *zap.Logger) *Persister {
	return &Persister{store: s, snapshots: snapshots, logger: logger}
}

// Register subscribes the persister to mutation notifications
func (p *Persister) Register(bus dispatcher.Dispatcher) {
	bus.SubscribeNamed(event.TypeMutationCommitted, "snapshot-persister", p.handleMutation)
}

// handleMutation persists the collection named in the event, or every
// collection when the event does not name one
func (p *Persister) handleMutation(ctx context.Context, evt *event.Event) error {
	snapshot, err := p.store.Snapshot()
	if err != nil {
		p.logger.Error("Failed to snapshot store", zap.Error(err))
		return fmt.Errorf("snapshot store: %w", err)
	}

	collection := evt.PayloadString("collection")
	for key, data := range snapshot {
		if collection != "" && key != collection {
			continue
		}
		if err := p.snapshots.Save(ctx, key, data); err != nil {
			return err
		}
	}

	p.logger.Debug("Snapshot persisted", zap.String("collection", collection))
	return nil
}
