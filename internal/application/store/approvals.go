package store

import (
	"context"
	"fmt"

	"github.com/assetdesk/assetdesk/internal/application/workflow"
	"github.com/assetdesk/assetdesk/internal/domain/entity"
	"github.com/assetdesk/assetdesk/internal/domain/guard"
	"github.com/assetdesk/assetdesk/internal/domain/lifecycle"
	domainwf "github.com/assetdesk/assetdesk/internal/domain/workflow"
)

// AddApproval creates an approval request at the start of the validation
// path. When equipment is already reserved for the request, the item is
// placed in manager-approval custody for the beneficiary in the same
// operation.
func (s *Store) AddApproval(ctx context.Context, actor *entity.User, approval entity.Approval) (entity.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if approval.ID == "" {
		approval.ID = newID()
	}
	approval.Status = entity.ApprovalWaitingManager
	approval.ValidationSteps = workflow.NewApprovalSteps()
	approval.CurrentStep = 0
	approval.IsDelegated = approval.RequesterID != approval.BeneficiaryID

	now := s.now()
	approval.CreatedAt = now
	approval.UpdatedAt = now

	// Reserve the equipment first so a missing or unavailable item aborts
	// the whole operation before anything is committed. Only a free item
	// may be reserved: stealing one already in custody would evict its
	// holder without a return event.
	if approval.AssignedEquipmentID != "" {
		item, err := s.equipmentByIDLocked(approval.AssignedEquipmentID)
		if err != nil {
			return entity.Approval{}, fmt.Errorf("reserve equipment for approval: %w", err)
		}
		if item.AssignmentStatus != entity.AssignNone || item.Status != entity.StatusAvailable {
			return entity.Approval{}, fmt.Errorf("reserve equipment for approval: %s is not available: %w", item.AssetID, ErrInvalidState)
		}

		status := entity.AssignWaitingManager
		patch := entity.EquipmentPatch{
			AssignmentStatus: &status,
			UserID:           &approval.BeneficiaryID,
			UserName:         &approval.BeneficiaryName,
		}
		idx, updated, cls, err := s.prepareEquipmentUpdateLocked(approval.AssignedEquipmentID, patch, map[string]string{
			"approval_id": approval.ID,
		})
		if err != nil {
			return entity.Approval{}, fmt.Errorf("reserve equipment for approval: %w", err)
		}
		s.commitEquipmentUpdateLocked(actor, idx, updated, cls)
	}

	s.approvals = append(s.approvals, approval)

	s.appendEventLocked(entity.HistoryEvent{
		Type:       entity.EventApprovalCreated,
		TargetType: entity.TargetApproval,
		TargetID:   approval.ID,
		TargetName: approval.BeneficiaryName,
		Description: fmt.Sprintf("approval requested for %s (%s)",
			approval.BeneficiaryName, approval.EquipmentCategory),
		Metadata: map[string]string{
			"beneficiary_id": approval.BeneficiaryID,
			"requester_id":   approval.RequesterID,
			"urgency":        approval.Urgency,
			"status":         approval.Status.String(),
		},
	}, actor)

	s.logInfo("Approval created",
		"approval_id", approval.ID,
		"beneficiary_id", approval.BeneficiaryID,
		"delegated", approval.IsDelegated,
	)
	s.notifyMutation(CollectionApprovals, CollectionEvents)
	return approval, nil
}

// UpdateApproval moves an approval to nextStatus. The guard validates the
// fixed path and the actor's authority; the state machine executes the
// transition; the implied equipment patch is committed in the same atomic
// operation, so the two records never drift.
func (s *Store) UpdateApproval(ctx context.Context, actor *entity.User, id string, nextStatus entity.ApprovalStatus) (entity.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.approvalIndexLocked(id)
	if idx < 0 {
		return entity.Decision{}, fmt.Errorf("update approval %s: %w", id, ErrNotFound)
	}
	approval := s.approvals[idx]

	if decision := guard.CanTransitionApproval(&approval, nextStatus, actor, s.users); !decision.Allowed {
		s.appendDenialLocked(actor, entity.TargetApproval, approval.ID, approval.BeneficiaryName, "transition approval", decision.Reason)
		return decision, nil
	}

	trigger, err := workflow.TriggerForStatus(nextStatus)
	if err != nil {
		return entity.Decision{}, fmt.Errorf("update approval %s: %w", id, err)
	}

	machine := workflow.BuildApprovalStateMachine(domainwf.State(approval.Status))
	if err := machine.Fire(ctx, trigger); err != nil {
		return entity.Decision{}, fmt.Errorf("update approval %s: %w", id, err)
	}

	updated := approval
	updated.Status = entity.ApprovalStatus(machine.State())
	updated.ValidationSteps, updated.CurrentStep = workflow.AdvanceValidationSteps(&approval, nextStatus)
	updated.UpdatedAt = s.now()

	// Prepare the equipment side effect before committing anything, so a
	// failure leaves both records untouched.
	var (
		equipmentIdx     = -1
		updatedEquipment entity.Equipment
		classification   lifecycle.Classification
	)
	if approval.AssignedEquipmentID != "" {
		patch := workflow.ComputeEquipmentPatch(nextStatus, actorName(actor), updated.UpdatedAt)
		if patch != nil {
			equipmentIdx, updatedEquipment, classification, err = s.prepareEquipmentUpdateLocked(
				approval.AssignedEquipmentID, *patch, map[string]string{"approval_id": approval.ID})
			if err != nil {
				return entity.Decision{}, fmt.Errorf("apply approval side effect: %w", err)
			}
		}
	}

	s.approvals[idx] = updated

	s.appendEventLocked(entity.HistoryEvent{
		Type:       approvalEventType(nextStatus),
		TargetType: entity.TargetApproval,
		TargetID:   updated.ID,
		TargetName: updated.BeneficiaryName,
		Description: fmt.Sprintf("approval for %s moved from %s to %s",
			updated.BeneficiaryName, approval.Status, updated.Status),
		Metadata: map[string]string{
			"from_status":  approval.Status.String(),
			"to_status":    updated.Status.String(),
			"equipment_id": approval.AssignedEquipmentID,
		},
	}, actor)

	if equipmentIdx >= 0 {
		s.commitEquipmentUpdateLocked(actor, equipmentIdx, updatedEquipment, classification)
	}

	s.logInfo("Approval transitioned",
		"approval_id", updated.ID,
		"from", approval.Status.String(),
		"to", updated.Status.String(),
	)
	s.notifyMutation(CollectionApprovals, CollectionEvents)
	return entity.Allow(), nil
}

func approvalEventType(nextStatus entity.ApprovalStatus) entity.EventType {
	switch nextStatus {
	case entity.ApprovalApproved:
		return entity.EventApprovalApproved
	case entity.ApprovalRejected:
		return entity.EventApprovalRejected
	default:
		return entity.EventApprovalStep
	}
}

func actorName(actor *entity.User) string {
	if actor == nil {
		return "system"
	}
	return actor.Name
}

func (s *Store) approvalIndexLocked(id string) int {
	for i := range s.approvals {
		if s.approvals[i].ID == id {
			return i
		}
	}
	return -1
}
