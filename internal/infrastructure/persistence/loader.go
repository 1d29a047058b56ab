package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/assetdesk/assetdesk/internal/application/port"
	"github.com/assetdesk/assetdesk/internal/application/store"
)

// LoadState restores the persisted collections. A missing snapshot leaves
// its collection empty; a corrupt one is logged and skipped rather than
// blocking startup, the seed merge fills the gap.
func LoadState(ctx context.Context, snapshots port.SnapshotStore, logger *zap.Logger) (store.State, error) {
	var state store.State

	load := func(key string, target interface{}) error {
		data, err := snapshots.Load(ctx, key)
		if errors.Is(err, port.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, target); err != nil {
			logger.Error("Discarding corrupt snapshot",
				zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	if err := load(store.CollectionUsers, &state.Users); err != nil {
		return store.State{}, err
	}
	if err := load(store.CollectionEquipment, &state.Equipment); err != nil {
		return store.State{}, err
	}
	if err := load(store.CollectionApprovals, &state.Approvals); err != nil {
		return store.State{}, err
	}
	if err := load(store.CollectionEvents, &state.Events); err != nil {
		return store.State{}, err
	}
	if err := load(store.CollectionSettings, &state.Settings); err != nil {
		return store.State{}, err
	}

	return state, nil
}
