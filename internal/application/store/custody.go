package store

import (
	"context"
	"fmt"

	"github.com/assetdesk/assetdesk/internal/domain/entity"
)

// Custody intents are the equipment-only mutations of the delivery and
// return flow. Each one checks the current assignment status, then commits
// a patch through the regular lifecycle path.

// ConfirmReceipt records that the beneficiary received the item. This is
// the step that finally flips the physical status to Attribué.
func (s *Store) ConfirmReceipt(ctx context.Context, actor *entity.User, id string) (entity.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.equipmentByIDLocked(id)
	if err != nil {
		return entity.Decision{}, err
	}
	if item.AssignmentStatus != entity.AssignPendingDelivery {
		return s.denyCustodyLocked(actor, &item, "confirm receipt", fmt.Sprintf("%s is not awaiting delivery", item.AssetID)), nil
	}

	now := s.now()
	status := entity.StatusAssigned
	assignment := entity.AssignConfirmed
	_, err = s.updateEquipmentLocked(actor, id, entity.EquipmentPatch{
		Status:           &status,
		AssignmentStatus: &assignment,
		ConfirmedAt:      &now,
	}, nil)
	if err != nil {
		return entity.Decision{}, err
	}
	return entity.Allow(), nil
}

// DisputeDelivery records that the beneficiary contests the delivery
func (s *Store) DisputeDelivery(ctx context.Context, actor *entity.User, id string) (entity.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.equipmentByIDLocked(id)
	if err != nil {
		return entity.Decision{}, err
	}
	if item.AssignmentStatus != entity.AssignPendingDelivery && item.AssignmentStatus != entity.AssignConfirmed {
		return s.denyCustodyLocked(actor, &item, "dispute delivery", fmt.Sprintf("%s has no delivery to dispute", item.AssetID)), nil
	}

	assignment := entity.AssignDisputed
	_, err = s.updateEquipmentLocked(actor, id, entity.EquipmentPatch{
		AssignmentStatus: &assignment,
	}, nil)
	if err != nil {
		return entity.Decision{}, err
	}
	return entity.Allow(), nil
}

// RequestReturn starts the return flow for an item in custody
func (s *Store) RequestReturn(ctx context.Context, actor *entity.User, id string) (entity.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.equipmentByIDLocked(id)
	if err != nil {
		return entity.Decision{}, err
	}
	if !item.HasUser() {
		return s.denyCustodyLocked(actor, &item, "request return", fmt.Sprintf("%s is not assigned to anyone", item.AssetID)), nil
	}
	if item.AssignmentStatus == entity.AssignPendingReturn {
		return s.denyCustodyLocked(actor, &item, "request return", fmt.Sprintf("%s is already awaiting return inspection", item.AssetID)), nil
	}

	now := s.now()
	assignment := entity.AssignPendingReturn
	_, err = s.updateEquipmentLocked(actor, id, entity.EquipmentPatch{
		AssignmentStatus:  &assignment,
		ReturnRequestedAt: &now,
	}, nil)
	if err != nil {
		return entity.Decision{}, err
	}
	return entity.Allow(), nil
}

// InspectReturn closes the return flow: the item leaves custody and goes
// back to stock, or to repair when the inspection found damage.
func (s *Store) InspectReturn(ctx context.Context, actor *entity.User, id string, toRepair bool) (entity.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.equipmentByIDLocked(id)
	if err != nil {
		return entity.Decision{}, err
	}
	if item.AssignmentStatus != entity.AssignPendingReturn {
		return s.denyCustodyLocked(actor, &item, "inspect return", fmt.Sprintf("%s has no pending return to inspect", item.AssetID)), nil
	}

	now := s.now()
	status := entity.StatusAvailable
	patch := entity.EquipmentPatch{
		Status:            &status,
		AssignmentStatus:  assignmentStatusPtr(entity.AssignNone),
		ClearUser:         true,
		ReturnInspectedAt: &now,
	}
	if toRepair {
		status = entity.StatusInRepair
		patch.RepairStartDate = &now
	}

	_, err = s.updateEquipmentLocked(actor, id, patch, nil)
	if err != nil {
		return entity.Decision{}, err
	}
	return entity.Allow(), nil
}

// StartRepair sends an uncommitted item to repair
func (s *Store) StartRepair(ctx context.Context, actor *entity.User, id string) (entity.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.equipmentByIDLocked(id)
	if err != nil {
		return entity.Decision{}, err
	}
	if item.Status == entity.StatusInRepair {
		return s.denyCustodyLocked(actor, &item, "start repair", fmt.Sprintf("%s is already in repair", item.AssetID)), nil
	}
	if item.Status == entity.StatusAssigned {
		return s.denyCustodyLocked(actor, &item, "start repair", fmt.Sprintf("%s must be returned before repair", item.AssetID)), nil
	}

	now := s.now()
	status := entity.StatusInRepair
	_, err = s.updateEquipmentLocked(actor, id, entity.EquipmentPatch{
		Status:          &status,
		RepairStartDate: &now,
	}, nil)
	if err != nil {
		return entity.Decision{}, err
	}
	return entity.Allow(), nil
}

// EndRepair returns a repaired item to stock
func (s *Store) EndRepair(ctx context.Context, actor *entity.User, id string) (entity.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.equipmentByIDLocked(id)
	if err != nil {
		return entity.Decision{}, err
	}
	if item.Status != entity.StatusInRepair {
		return s.denyCustodyLocked(actor, &item, "end repair", fmt.Sprintf("%s is not in repair", item.AssetID)), nil
	}

	now := s.now()
	status := entity.StatusAvailable
	_, err = s.updateEquipmentLocked(actor, id, entity.EquipmentPatch{
		Status:        &status,
		RepairEndDate: &now,
	}, nil)
	if err != nil {
		return entity.Decision{}, err
	}
	return entity.Allow(), nil
}

// denyCustodyLocked records a custody-precondition denial as a sensitive
// audit event and returns the decision.
func (s *Store) denyCustodyLocked(actor *entity.User, item *entity.Equipment, operation, reason string) entity.Decision {
	s.appendDenialLocked(actor, entity.TargetEquipment, item.ID, item.AssetID, operation, reason)
	return entity.Deny(reason)
}

func (s *Store) equipmentByIDLocked(id string) (entity.Equipment, error) {
	idx := s.equipmentIndexLocked(id)
	if idx < 0 {
		return entity.Equipment{}, fmt.Errorf("equipment %s: %w", id, ErrNotFound)
	}
	return s.equipment[idx], nil
}

func assignmentStatusPtr(s entity.AssignmentStatus) *entity.AssignmentStatus {
	return &s
}
