package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/assetdesk/assetdesk/internal/domain/entity"
)

// timelineLimit caps the merged movement timeline per entity
const timelineLimit = 200

// LogEvent appends an event to the audit trail. It is the sole write path
// into the event collection, always succeeds, and never blocks the caller.
// Used directly for system notifications outside the state machines.
func (s *Store) LogEvent(evt entity.HistoryEvent) {
	s.mu.Lock()
	s.appendEventLocked(evt, nil)
	s.mu.Unlock()

	s.notifyMutation(CollectionEvents)
}

// appendEventLocked finalizes and appends an event. A nil actor marks the
// event as machine-generated.
func (s *Store) appendEventLocked(evt entity.HistoryEvent, actor *entity.User) {
	if evt.ID == "" {
		evt.ID = newID()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = s.now()
	}
	if actor != nil {
		evt.ActorID = actor.ID
		evt.ActorName = actor.Name
		evt.ActorRole = actor.Role
	} else if evt.ActorID == "" {
		evt.IsSystem = true
	}

	s.events = append(s.events, evt)
}

// appendDenialLocked records a guard denial as a sensitive audit event so
// repeated unauthorized attempts are discoverable.
func (s *Store) appendDenialLocked(actor *entity.User, targetType entity.TargetType, targetID, targetName, operation, reason string) {
	s.appendEventLocked(entity.HistoryEvent{
		Type:        entity.EventAccessDenied,
		TargetType:  targetType,
		TargetID:    targetID,
		TargetName:  targetName,
		Description: fmt.Sprintf("%s denied: %s", operation, reason),
		Metadata:    map[string]string{"operation": operation, "reason": reason},
		IsSensitive: true,
	}, actor)

	name := "system"
	if actor != nil {
		name = actor.Name
	}
	s.logInfo("Operation denied", "operation", operation, "actor", name, "reason", reason)
	s.notifyMutation(CollectionEvents)
}

// Events returns the audit trail visible to the viewer, newest first.
// Sensitive events are hidden from non-privileged viewers.
func (s *Store) Events(viewer *entity.User) []entity.HistoryEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	privileged := viewer != nil && viewer.Role.IsPrivileged()
	out := make([]entity.HistoryEvent, 0, len(s.events))
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].IsSensitive && !privileged {
			continue
		}
		out = append(out, s.events[i])
	}
	return out
}

// eventsForLocked returns the authoritative events of one entity in
// insertion order
func (s *Store) eventsForLocked(targetType entity.TargetType, targetID string) []entity.HistoryEvent {
	var out []entity.HistoryEvent
	for i := range s.events {
		if s.events[i].TargetType == targetType && s.events[i].TargetID == targetID {
			out = append(out, s.events[i])
		}
	}
	return out
}

// TimelineEntry is one row of the reconciled movement timeline
type TimelineEntry struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	ActorName   string    `json:"actor_name,omitempty"`
	Synthetic   bool      `json:"synthetic"`
}

// Timeline merges the authoritative event stream of one entity with
// synthetic entries derived from the entity's own timestamp fields. The
// synthetic entries cover data seeded before the audit log existed. The
// merge is deterministic: stable sort by timestamp descending, duplicates
// removed on (title, timestamp truncated to the second), capped at 200.
func (s *Store) Timeline(targetType entity.TargetType, targetID string) []TimelineEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []TimelineEntry
	for _, evt := range s.eventsForLocked(targetType, targetID) {
		entries = append(entries, TimelineEntry{
			Title:       evt.Type.Label(),
			Description: evt.Description,
			Timestamp:   evt.Timestamp,
			ActorName:   evt.ActorName,
		})
	}

	entries = append(entries, s.syntheticEntriesLocked(targetType, targetID)...)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	type dedupKey struct {
		title string
		sec   int64
	}
	seen := make(map[dedupKey]bool, len(entries))
	merged := entries[:0]
	for _, entry := range entries {
		key := dedupKey{title: entry.Title, sec: entry.Timestamp.Unix()}
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, entry)
		if len(merged) == timelineLimit {
			break
		}
	}

	return merged
}

// syntheticEntriesLocked synthesizes timeline rows from an entity's own
// timestamp fields
func (s *Store) syntheticEntriesLocked(targetType entity.TargetType, targetID string) []TimelineEntry {
	var out []TimelineEntry

	add := func(ts *time.Time, eventType entity.EventType, description string) {
		if ts == nil || ts.IsZero() {
			return
		}
		out = append(out, TimelineEntry{
			Title:       eventType.Label(),
			Description: description,
			Timestamp:   *ts,
			Synthetic:   true,
		})
	}

	switch targetType {
	case entity.TargetEquipment:
		for i := range s.equipment {
			e := &s.equipment[i]
			if e.ID != targetID {
				continue
			}
			add(e.AssignedAt, entity.EventAssignPending, fmt.Sprintf("%s assigned by %s", e.AssetID, e.AssignedByName))
			add(e.ConfirmedAt, entity.EventAssignConfirmed, fmt.Sprintf("%s receipt confirmed", e.AssetID))
			add(e.ReturnRequestedAt, entity.EventReturn, fmt.Sprintf("%s return requested", e.AssetID))
			add(e.ReturnInspectedAt, entity.EventReturn, fmt.Sprintf("%s return inspected", e.AssetID))
			add(e.RepairStartDate, entity.EventRepairStart, fmt.Sprintf("%s repair started", e.AssetID))
			add(e.RepairEndDate, entity.EventRepairEnd, fmt.Sprintf("%s repair completed", e.AssetID))
			break
		}

	case entity.TargetApproval:
		for i := range s.approvals {
			a := &s.approvals[i]
			if a.ID != targetID {
				continue
			}
			created := a.CreatedAt
			add(&created, entity.EventApprovalCreated, fmt.Sprintf("approval requested for %s", a.BeneficiaryName))
			break
		}

	case entity.TargetUser:
		for i := range s.users {
			u := &s.users[i]
			if u.ID != targetID {
				continue
			}
			created := u.CreatedAt
			add(&created, entity.EventCreate, fmt.Sprintf("user %s created", u.Name))
			break
		}
	}

	return out
}
