// Package store owns the in-memory domain collections and exposes the
// mutation surface consumed by external callers. Every mutating operation
// runs to completion under one lock: guard check, state computation and
// commit are never interleaved. Durable persistence is fire-and-forget,
// signalled over the event bus after the in-memory commit.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/assetdesk/assetdesk/internal/application/dispatcher"
	"github.com/assetdesk/assetdesk/internal/domain/entity"
	"github.com/assetdesk/assetdesk/internal/domain/event"
)

// Collection keys used by the snapshot persistence layout
const (
	CollectionUsers     = "users"
	CollectionEquipment = "equipment"
	CollectionApprovals = "approvals"
	CollectionEvents    = "events"
	CollectionSettings  = "settings"
)

var (
	// ErrNotFound is returned when an operation references an unknown id.
	// This is an integrity failure, distinct from a business-rule denial.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidState is returned when a mutation would break a domain
	// invariant; it indicates a programming error in the caller
	ErrInvalidState = errors.New("invalid entity state")
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// State is the full persisted dataset of the engine
type State struct {
	Users     []entity.User         `json:"users"`
	Equipment []entity.Equipment    `json:"equipment"`
	Approvals []entity.Approval     `json:"approvals"`
	Events    []entity.HistoryEvent `json:"events"`
	Settings  map[string]string     `json:"settings"`
}

// Store is the exclusive owner of the domain collections
type Store struct {
	mu     sync.RWMutex
	logger Logger
	bus    dispatcher.Dispatcher
	now    func() time.Time

	users     []entity.User
	equipment []entity.Equipment
	approvals []entity.Approval
	events    []entity.HistoryEvent
	settings  map[string]string
}

// Option configures the store
type Option func(*Store)

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store initialized with the given state
func New(initial State, bus dispatcher.Dispatcher, logger Logger, opts ...Option) *Store {
	s := &Store{
		logger:    logger,
		bus:       bus,
		now:       time.Now,
		users:     append([]entity.User(nil), initial.Users...),
		equipment: append([]entity.Equipment(nil), initial.Equipment...),
		approvals: append([]entity.Approval(nil), initial.Approvals...),
		events:    append([]entity.HistoryEvent(nil), initial.Events...),
		settings:  make(map[string]string, len(initial.Settings)),
	}
	for k, v := range initial.Settings {
		s.settings[k] = v
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// MergeSeed merges seed records into persisted state by id, so upgrades add
// newly-seeded records without erasing user data. Persisted records win.
func MergeSeed(persisted, seed State) State {
	merged := State{
		Users:     persisted.Users,
		Equipment: persisted.Equipment,
		Approvals: persisted.Approvals,
		Events:    persisted.Events,
		Settings:  map[string]string{},
	}

	userIDs := make(map[string]bool, len(persisted.Users))
	for _, u := range persisted.Users {
		userIDs[u.ID] = true
	}
	for _, u := range seed.Users {
		if !userIDs[u.ID] {
			merged.Users = append(merged.Users, u)
		}
	}

	equipmentIDs := make(map[string]bool, len(persisted.Equipment))
	for _, e := range persisted.Equipment {
		equipmentIDs[e.ID] = true
	}
	for _, e := range seed.Equipment {
		if !equipmentIDs[e.ID] {
			merged.Equipment = append(merged.Equipment, e)
		}
	}

	approvalIDs := make(map[string]bool, len(persisted.Approvals))
	for _, a := range persisted.Approvals {
		approvalIDs[a.ID] = true
	}
	for _, a := range seed.Approvals {
		if !approvalIDs[a.ID] {
			merged.Approvals = append(merged.Approvals, a)
		}
	}

	for k, v := range seed.Settings {
		merged.Settings[k] = v
	}
	for k, v := range persisted.Settings {
		merged.Settings[k] = v
	}

	return merged
}

// Snapshot serializes every collection under its stable key
func (s *Store) Snapshot() (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte, 5)
	for key, value := range map[string]interface{}{
		CollectionUsers:     s.users,
		CollectionEquipment: s.equipment,
		CollectionApprovals: s.approvals,
		CollectionEvents:    s.events,
		CollectionSettings:  s.settings,
	} {
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", key, err)
		}
		out[key] = data
	}

	return out, nil
}

// ListUsers returns a copy of the user collection
func (s *Store) ListUsers() []entity.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.User(nil), s.users...)
}

// GetUser returns the user with the given id
func (s *Store) GetUser(id string) (entity.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.users {
		if s.users[i].ID == id {
			return s.users[i], true
		}
	}
	return entity.User{}, false
}

// ListEquipment returns a copy of the equipment collection
func (s *Store) ListEquipment() []entity.Equipment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Equipment(nil), s.equipment...)
}

// GetEquipment returns the equipment with the given id
func (s *Store) GetEquipment(id string) (entity.Equipment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.equipment {
		if s.equipment[i].ID == id {
			return s.equipment[i], true
		}
	}
	return entity.Equipment{}, false
}

// ListApprovals returns a copy of the approval collection
func (s *Store) ListApprovals() []entity.Approval {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Approval(nil), s.approvals...)
}

// GetApproval returns the approval with the given id
func (s *Store) GetApproval(id string) (entity.Approval, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.approvals {
		if s.approvals[i].ID == id {
			return s.approvals[i], true
		}
	}
	return entity.Approval{}, false
}

// GetSetting returns a settings value
func (s *Store) GetSetting(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	return v, ok
}

// SetSetting stores a settings value
func (s *Store) SetSetting(key, value string) {
	s.mu.Lock()
	s.settings[key] = value
	s.mu.Unlock()

	s.notifyMutation(CollectionSettings)
}

// notifyMutation signals the bus that a collection changed. Persistence
// subscribers react asynchronously; the mutation path never waits.
// A detached context is used so persistence survives request cancellation.
func (s *Store) notifyMutation(collections ...string) {
	if s.bus == nil {
		return
	}
	for _, collection := range collections {
		s.bus.DispatchAsync(context.Background(), event.New(event.TypeMutationCommitted, map[string]interface{}{
			"collection": collection,
		}))
	}
}

// newID returns a fresh entity id
func newID() string {
	return uuid.NewString()
}

func (s *Store) logInfo(msg string, keysAndValues ...interface{}) {
	if s.logger != nil {
		s.logger.Info(msg, keysAndValues...)
	}
}

func (s *Store) logError(msg string, keysAndValues ...interface{}) {
	if s.logger != nil {
		s.logger.Error(msg, keysAndValues...)
	}
}
