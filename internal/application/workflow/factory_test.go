package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/assetdesk/internal/domain/entity"
	domainwf "github.com/assetdesk/assetdesk/internal/domain/workflow"
)

func TestBuildApprovalStateMachine_HappyPath(t *testing.T) {
	machine := BuildApprovalStateMachine(domainwf.StateWaitingManager)

	require.NoError(t, machine.Fire(context.Background(), domainwf.TriggerManagerValidate))
	assert.Equal(t, domainwf.StateWaitingIT, machine.State())

	require.NoError(t, machine.Fire(context.Background(), domainwf.TriggerITApprove))
	assert.Equal(t, domainwf.StateApproved, machine.State())
}

func TestBuildApprovalStateMachine_RejectFromBothWaitingStates(t *testing.T) {
	fromManager := BuildApprovalStateMachine(domainwf.StateWaitingManager)
	require.NoError(t, fromManager.Fire(context.Background(), domainwf.TriggerReject))
	assert.Equal(t, domainwf.StateRejected, fromManager.State())

	fromIT := BuildApprovalStateMachine(domainwf.StateWaitingIT)
	require.NoError(t, fromIT.Fire(context.Background(), domainwf.TriggerReject))
	assert.Equal(t, domainwf.StateRejected, fromIT.State())
}

func TestBuildApprovalStateMachine_NoBackwardTransitions(t *testing.T) {
	machine := BuildApprovalStateMachine(domainwf.StateApproved)

	assert.Empty(t, machine.PermittedTriggers())
	err := machine.Fire(context.Background(), domainwf.TriggerManagerValidate)
	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)
}

func TestBuildApprovalStateMachine_CannotSkipManagerStep(t *testing.T) {
	machine := BuildApprovalStateMachine(domainwf.StateWaitingManager)
	assert.False(t, machine.CanFire(domainwf.TriggerITApprove))
}

// The FSM configuration and the adjacency table on entity.ApprovalStatus
// must describe the same graph.
func TestMachineAgreesWithStatusAdjacency(t *testing.T) {
	statuses := []entity.ApprovalStatus{
		entity.ApprovalWaitingManager,
		entity.ApprovalWaitingIT,
		entity.ApprovalApproved,
		entity.ApprovalRejected,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			adjacent := from.CanTransitionTo(to)

			trigger, err := TriggerForStatus(to)
			if err != nil {
				assert.False(t, adjacent, "adjacency allows %s -> %s but no trigger reaches %s", from, to, to)
				continue
			}

			machine := BuildApprovalStateMachine(domainwf.State(from))
			fireable := machine.CanFire(trigger) && fireReaches(machine, trigger, domainwf.State(to))
			assert.Equal(t, adjacent, fireable, "machine and adjacency disagree on %s -> %s", from, to)
		}
	}
}

func fireReaches(machine domainwf.StateMachine, trigger domainwf.Trigger, want domainwf.State) bool {
	if err := machine.Fire(context.Background(), trigger); err != nil {
		return false
	}
	return machine.State() == want
}

func TestTriggerForStatus(t *testing.T) {
	tests := []struct {
		next    entity.ApprovalStatus
		trigger domainwf.Trigger
		wantErr bool
	}{
		{entity.ApprovalWaitingIT, domainwf.TriggerManagerValidate, false},
		{entity.ApprovalApproved, domainwf.TriggerITApprove, false},
		{entity.ApprovalRejected, domainwf.TriggerReject, false},
		{entity.ApprovalWaitingManager, "", true},
		{entity.ApprovalStatus("BOGUS"), "", true},
	}

	for _, tt := range tests {
		trigger, err := TriggerForStatus(tt.next)
		if tt.wantErr {
			assert.Error(t, err, "TriggerForStatus(%s)", tt.next)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.trigger, trigger)
	}
}

func TestComputeEquipmentPatch(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	t.Run("to IT processing", func(t *testing.T) {
		patch := ComputeEquipmentPatch(entity.ApprovalWaitingIT, "Ada", now)
		require.NotNil(t, patch)
		require.NotNil(t, patch.AssignmentStatus)
		assert.Equal(t, entity.AssignWaitingIT, *patch.AssignmentStatus)
		assert.Nil(t, patch.AssignedAt)
		assert.False(t, patch.ClearUser)
	})

	t.Run("approved reserves for delivery", func(t *testing.T) {
		patch := ComputeEquipmentPatch(entity.ApprovalApproved, "Ada", now)
		require.NotNil(t, patch)
		assert.Equal(t, entity.AssignPendingDelivery, *patch.AssignmentStatus)
		require.NotNil(t, patch.AssignedAt)
		assert.Equal(t, now, *patch.AssignedAt)
		assert.Equal(t, "Ada", *patch.AssignedByName)
		// Physical status untouched: stays Disponible until receipt is confirmed
		assert.Nil(t, patch.Status)
	})

	t.Run("rejected releases the reservation", func(t *testing.T) {
		patch := ComputeEquipmentPatch(entity.ApprovalRejected, "Ada", now)
		require.NotNil(t, patch)
		assert.Equal(t, entity.AssignNone, *patch.AssignmentStatus)
		assert.True(t, patch.ClearUser)
	})

	t.Run("no effect otherwise", func(t *testing.T) {
		assert.Nil(t, ComputeEquipmentPatch(entity.ApprovalWaitingManager, "Ada", now))
	})
}

func TestAdvanceValidationSteps(t *testing.T) {
	approval := &entity.Approval{
		Status:          entity.ApprovalWaitingManager,
		ValidationSteps: NewApprovalSteps(),
		CurrentStep:     0,
	}

	steps, current := AdvanceValidationSteps(approval, entity.ApprovalWaitingIT)
	require.Len(t, steps, 2)
	assert.Equal(t, entity.StepValidated, steps[0].Status)
	assert.Equal(t, entity.RoleAdmin, steps[1].Role)
	assert.Equal(t, entity.StepPending, steps[1].Status)
	assert.Equal(t, 1, current)

	// original slice untouched
	assert.Equal(t, entity.StepPending, approval.ValidationSteps[0].Status)

	atIT := &entity.Approval{Status: entity.ApprovalWaitingIT, ValidationSteps: steps, CurrentStep: current}

	approvedSteps, _ := AdvanceValidationSteps(atIT, entity.ApprovalApproved)
	assert.Equal(t, entity.StepValidated, approvedSteps[1].Status)

	rejectedSteps, _ := AdvanceValidationSteps(atIT, entity.ApprovalRejected)
	assert.Equal(t, entity.StepRejected, rejectedSteps[1].Status)
}
