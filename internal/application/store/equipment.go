package store

import (
	"context"
	"fmt"

	"github.com/assetdesk/assetdesk/internal/domain/entity"
	"github.com/assetdesk/assetdesk/internal/domain/guard"
	"github.com/assetdesk/assetdesk/internal/domain/lifecycle"
)

// AddEquipment registers a new item in the inventory
func (s *Store) AddEquipment(ctx context.Context, actor *entity.User, item entity.Equipment) (entity.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = newID()
	}
	if s.equipmentIndexLocked(item.ID) >= 0 {
		return entity.Equipment{}, fmt.Errorf("add equipment %s: id already in use: %w", item.ID, ErrInvalidState)
	}
	if item.Status == "" {
		item.Status = entity.StatusAvailable
	}
	if item.AssignmentStatus == "" {
		item.AssignmentStatus = entity.AssignNone
	}
	if !item.CustodyConsistent() {
		return entity.Equipment{}, fmt.Errorf("add equipment %s: holder does not match assignment status: %w", item.AssetID, ErrInvalidState)
	}

	now := s.now()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.equipment = append(s.equipment, item)

	s.appendEventLocked(entity.HistoryEvent{
		Type:        entity.EventCreate,
		TargetType:  entity.TargetEquipment,
		TargetID:    item.ID,
		TargetName:  item.AssetID,
		Description: fmt.Sprintf("%s (%s %s) added to inventory", item.AssetID, item.Type, item.Model),
		Metadata:    map[string]string{"status": item.Status.String()},
	}, actor)

	s.logInfo("Equipment created", "equipment_id", item.ID, "asset_id", item.AssetID)
	s.notifyMutation(CollectionEquipment, CollectionEvents)
	return item, nil
}

// UpdateEquipment applies a partial update to an item. The lifecycle
// classifier turns the diff into exactly one semantic movement event;
// extra metadata entries are merged into the event.
func (s *Store) UpdateEquipment(ctx context.Context, actor *entity.User, id string, patch entity.EquipmentPatch, logMetadata map[string]string) (entity.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateEquipmentLocked(actor, id, patch, logMetadata)
}

// updateEquipmentLocked is the shared commit path for direct equipment
// updates and approval side effects.
func (s *Store) updateEquipmentLocked(actor *entity.User, id string, patch entity.EquipmentPatch, logMetadata map[string]string) (entity.Equipment, error) {
	idx, updated, classification, err := s.prepareEquipmentUpdateLocked(id, patch, logMetadata)
	if err != nil {
		return entity.Equipment{}, err
	}

	s.commitEquipmentUpdateLocked(actor, idx, updated, classification)
	return updated, nil
}

// prepareEquipmentUpdateLocked validates a patch and classifies the
// resulting diff without committing anything, so multi-entity operations
// can abort cleanly before their first write.
func (s *Store) prepareEquipmentUpdateLocked(id string, patch entity.EquipmentPatch, logMetadata map[string]string) (int, entity.Equipment, lifecycle.Classification, error) {
	idx := s.equipmentIndexLocked(id)
	if idx < 0 {
		return -1, entity.Equipment{}, lifecycle.Classification{}, fmt.Errorf("update equipment %s: %w", id, ErrNotFound)
	}

	old := s.equipment[idx]
	updated := patch.Apply(old)
	updated.UpdatedAt = s.now()

	if !updated.CustodyConsistent() {
		return -1, entity.Equipment{}, lifecycle.Classification{}, fmt.Errorf("update equipment %s: holder does not match assignment status: %w", old.AssetID, ErrInvalidState)
	}

	classification := lifecycle.Classify(&old, &updated)
	for k, v := range logMetadata {
		classification.Metadata[k] = v
	}

	return idx, updated, classification, nil
}

// commitEquipmentUpdateLocked applies a prepared update and appends its
// movement event.
func (s *Store) commitEquipmentUpdateLocked(actor *entity.User, idx int, updated entity.Equipment, classification lifecycle.Classification) {
	s.equipment[idx] = updated

	s.appendEventLocked(entity.HistoryEvent{
		Type:        classification.Type,
		TargetType:  entity.TargetEquipment,
		TargetID:    updated.ID,
		TargetName:  updated.AssetID,
		Description: classification.Description,
		Metadata:    classification.Metadata,
	}, actor)

	s.logInfo("Equipment updated",
		"equipment_id", updated.ID,
		"event_type", classification.Type.String(),
	)
	s.notifyMutation(CollectionEquipment, CollectionEvents)
}

// DeleteEquipment removes an item unless it is in custody, reserved, or
// carries a service record
func (s *Store) DeleteEquipment(ctx context.Context, actor *entity.User, id string) (entity.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.equipmentIndexLocked(id)
	if idx < 0 {
		return entity.Decision{}, fmt.Errorf("delete equipment %s: %w", id, ErrNotFound)
	}
	item := s.equipment[idx]

	history := s.eventsForLocked(entity.TargetEquipment, item.ID)
	if decision := guard.CanDeleteEquipment(&item, history); !decision.Allowed {
		s.appendDenialLocked(actor, entity.TargetEquipment, item.ID, item.AssetID, "delete equipment", decision.Reason)
		return decision, nil
	}

	s.equipment = append(s.equipment[:idx], s.equipment[idx+1:]...)

	s.appendEventLocked(entity.HistoryEvent{
		Type:        entity.EventDelete,
		TargetType:  entity.TargetEquipment,
		TargetID:    item.ID,
		TargetName:  item.AssetID,
		Description: fmt.Sprintf("%s removed from inventory", item.AssetID),
	}, actor)

	s.logInfo("Equipment deleted", "equipment_id", item.ID)
	s.notifyMutation(CollectionEquipment, CollectionEvents)
	return entity.Allow(), nil
}

func (s *Store) equipmentIndexLocked(id string) int {
	for i := range s.equipment {
		if s.equipment[i].ID == id {
			return i
		}
	}
	return -1
}
