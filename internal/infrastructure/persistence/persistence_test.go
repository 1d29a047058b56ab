package persistence

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/assetdesk/assetdesk/internal/application/dispatcher"
	"github.com/assetdesk/assetdesk/internal/application/port"
	"github.com/assetdesk/assetdesk/internal/application/store"
	"github.com/assetdesk/assetdesk/internal/domain/entity"
)

// memorySnapshots is an in-memory port.SnapshotStore for tests
type memorySnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{data: map[string][]byte{}}
}

func (m *memorySnapshots) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memorySnapshots) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, port.ErrKeyNotFound
	}
	return data, nil
}

func TestLoadStateMissingSnapshotsYieldEmptyState(t *testing.T) {
	state, err := LoadState(context.Background(), newMemorySnapshots(), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, state.Users)
	assert.Empty(t, state.Equipment)
	assert.Nil(t, state.Settings)
}

func TestLoadStateSkipsCorruptSnapshot(t *testing.T) {
	snapshots := newMemorySnapshots()
	require.NoError(t, snapshots.Save(context.Background(), store.CollectionUsers, []byte("{not json")))
	require.NoError(t, snapshots.Save(context.Background(), store.CollectionSettings, []byte(`{"report.title":"x"}`)))

	state, err := LoadState(context.Background(), snapshots, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, state.Users, "corrupt collection falls back to empty")
	assert.Equal(t, "x", state.Settings["report.title"])
}

func TestPersisterSavesOnMutation(t *testing.T) {
	snapshots := newMemorySnapshots()
	bus := dispatcher.NewDispatcher()

	s := store.New(Seed(), bus, nil)
	NewPersister(s, snapshots, zap.NewNop()).Register(bus)

	s.SetSetting("report.title", "Custom register")
	require.NoError(t, bus.Close())

	data, err := snapshots.Load(context.Background(), store.CollectionSettings)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Custom register")

	// The persisted settings replay into a fresh store
	state, err := LoadState(context.Background(), snapshots, zap.NewNop())
	require.NoError(t, err)
	restored := store.New(store.MergeSeed(state, Seed()), nil, nil)
	title, ok := restored.GetSetting("report.title")
	require.True(t, ok)
	assert.Equal(t, "Custom register", title)
}

func TestSeedMergeKeepsPersistedRecords(t *testing.T) {
	seed := Seed()
	renamed := seed.Users[0]
	renamed.Name = "Renamed Root"

	merged := store.MergeSeed(store.State{Users: []entity.User{renamed}}, seed)
	require.Len(t, merged.Users, len(seed.Users))
	assert.Equal(t, "Renamed Root", merged.Users[0].Name)
}
