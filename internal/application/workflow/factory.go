// Package workflow wires the generic state machine to the approval domain:
// the fixed validation path, the mapping from requested statuses to machine
// triggers, and the equipment side effects of each transition.
package workflow

import (
	"fmt"
	"time"

	"github.com/assetdesk/assetdesk/internal/domain/entity"
	domainwf "github.com/assetdesk/assetdesk/internal/domain/workflow"
)

// BuildApprovalStateMachine creates a state machine configured for the fixed
// approval path: manager validation, then IT processing, then a terminal
// decision. Rejection is reachable from both waiting states.
func BuildApprovalStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateWaitingManager).
		Permit(domainwf.TriggerManagerValidate, domainwf.StateWaitingIT).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateWaitingIT).
		Permit(domainwf.TriggerITApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	// Approved and Rejected are terminal - no outgoing transitions

	return builder.Build(initialState)
}

// TriggerForStatus maps a requested target status to the machine trigger
// that reaches it
func TriggerForStatus(nextStatus entity.ApprovalStatus) (domainwf.Trigger, error) {
	switch nextStatus {
	case entity.ApprovalWaitingIT:
		return domainwf.TriggerManagerValidate, nil
	case entity.ApprovalApproved:
		return domainwf.TriggerITApprove, nil
	case entity.ApprovalRejected:
		return domainwf.TriggerReject, nil
	default:
		return "", fmt.Errorf("%w: no trigger reaches status %s", domainwf.ErrInvalidTransition, nextStatus)
	}
}

// ComputeEquipmentPatch returns the equipment-side mutation implied by an
// approval transition, or nil when the transition has no equipment effect.
// The physical status stays Disponible on approval; it only flips to
// Attribué when the beneficiary confirms receipt in a separate mutation.
func ComputeEquipmentPatch(nextStatus entity.ApprovalStatus, actorName string, now time.Time) *entity.EquipmentPatch {
	switch nextStatus {
	case entity.ApprovalWaitingIT:
		status := entity.AssignWaitingIT
		return &entity.EquipmentPatch{AssignmentStatus: &status}

	case entity.ApprovalApproved:
		status := entity.AssignPendingDelivery
		return &entity.EquipmentPatch{
			AssignmentStatus: &status,
			AssignedAt:       &now,
			AssignedByName:   &actorName,
		}

	case entity.ApprovalRejected:
		status := entity.AssignNone
		return &entity.EquipmentPatch{
			AssignmentStatus: &status,
			ClearUser:        true,
		}

	default:
		return nil
	}
}

// AdvanceValidationSteps returns the validation steps and current step index
// after moving the approval to nextStatus
func AdvanceValidationSteps(approval *entity.Approval, nextStatus entity.ApprovalStatus) ([]entity.ValidationStep, int) {
	steps := append([]entity.ValidationStep(nil), approval.ValidationSteps...)
	current := approval.CurrentStep

	mark := func(status entity.StepStatus) {
		if current >= 0 && current < len(steps) {
			steps[current].Status = status
		}
	}

	switch nextStatus {
	case entity.ApprovalWaitingIT:
		mark(entity.StepValidated)
		steps = append(steps, entity.ValidationStep{Role: entity.RoleAdmin, Status: entity.StepPending})
		current = len(steps) - 1
	case entity.ApprovalApproved:
		mark(entity.StepValidated)
	case entity.ApprovalRejected:
		mark(entity.StepRejected)
	}

	return steps, current
}

// NewApprovalSteps returns the initial validation sequence of a freshly
// created approval
func NewApprovalSteps() []entity.ValidationStep {
	return []entity.ValidationStep{
		{Role: entity.RoleManager, Status: entity.StepPending},
	}
}
