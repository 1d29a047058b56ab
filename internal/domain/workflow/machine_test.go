package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateWaitingManager, false},
		{StateWaitingIT, false},
		{StateApproved, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"waiting manager", StateWaitingManager, true},
		{"approved", StateApproved, true},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	if got := StateWaitingManager.String(); got != "WAITING_MANAGER_APPROVAL" {
		t.Errorf("State.String() = %v, want %v", got, "WAITING_MANAGER_APPROVAL")
	}
}

func TestTrigger_String(t *testing.T) {
	if got := TriggerReject.String(); got != "REJECT" {
		t.Errorf("Trigger.String() = %v, want %v", got, "REJECT")
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StateWaitingManager)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	// Configuring the same state twice returns the same configuration
	config2 := builder.Configure(StateWaitingManager)
	if config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	builder.Build(State("INVALID"))
}

func TestMachine_FireTransitions(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateWaitingManager).
		Permit(TriggerManagerValidate, StateWaitingIT).
		Permit(TriggerReject, StateRejected)
	builder.Configure(StateWaitingIT).
		Permit(TriggerITApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	machine := builder.Build(StateWaitingManager)

	if err := machine.Fire(context.Background(), TriggerManagerValidate); err != nil {
		t.Fatalf("Fire(MANAGER_VALIDATE) error = %v", err)
	}
	if machine.State() != StateWaitingIT {
		t.Errorf("State() = %v, want %v", machine.State(), StateWaitingIT)
	}

	if err := machine.Fire(context.Background(), TriggerITApprove); err != nil {
		t.Fatalf("Fire(IT_APPROVE) error = %v", err)
	}
	if machine.State() != StateApproved {
		t.Errorf("State() = %v, want %v", machine.State(), StateApproved)
	}
}

func TestMachine_FireInvalidTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateWaitingManager).
		Permit(TriggerManagerValidate, StateWaitingIT)

	machine := builder.Build(StateWaitingManager)

	err := machine.Fire(context.Background(), TriggerITApprove)
	if err == nil {
		t.Fatal("Fire() should fail for unconfigured trigger")
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
	}
	if machine.State() != StateWaitingManager {
		t.Errorf("State() = %v, state must not change on failed fire", machine.State())
	}
}

func TestMachine_FireFromTerminalState(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateWaitingManager).
		Permit(TriggerReject, StateRejected)

	machine := builder.Build(StateRejected)

	err := machine.Fire(context.Background(), TriggerReject)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() from terminal state error = %v, want ErrInvalidTransition", err)
	}
}

func TestMachine_GuardBlocksTransition(t *testing.T) {
	allowed := false
	builder := NewBuilder()
	builder.Configure(StateWaitingIT).
		PermitIf(TriggerITApprove, StateApproved, func(ctx context.Context) bool {
			return allowed
		})

	machine := builder.Build(StateWaitingIT)

	err := machine.Fire(context.Background(), TriggerITApprove)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want ErrGuardFailed", err)
	}

	allowed = true
	if err := machine.Fire(context.Background(), TriggerITApprove); err != nil {
		t.Errorf("Fire() error = %v after guard passes", err)
	}
	if machine.State() != StateApproved {
		t.Errorf("State() = %v, want %v", machine.State(), StateApproved)
	}
}

func TestMachine_CanFire(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateWaitingManager).
		Permit(TriggerManagerValidate, StateWaitingIT).
		Permit(TriggerReject, StateRejected)

	machine := builder.Build(StateWaitingManager)

	if !machine.CanFire(TriggerManagerValidate) {
		t.Error("CanFire(MANAGER_VALIDATE) = false, want true")
	}
	if machine.CanFire(TriggerITApprove) {
		t.Error("CanFire(IT_APPROVE) = true, want false")
	}
}

func TestMachine_PermittedTriggers(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateWaitingManager).
		Permit(TriggerManagerValidate, StateWaitingIT).
		Permit(TriggerReject, StateRejected)

	machine := builder.Build(StateWaitingManager)

	triggers := machine.PermittedTriggers()
	if len(triggers) != 2 {
		t.Fatalf("PermittedTriggers() returned %d triggers, want 2", len(triggers))
	}

	seen := make(map[Trigger]bool)
	for _, tr := range triggers {
		seen[tr] = true
	}
	if !seen[TriggerManagerValidate] || !seen[TriggerReject] {
		t.Errorf("PermittedTriggers() = %v, missing expected triggers", triggers)
	}
}

func TestMachine_PermittedTriggersEmptyForTerminal(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateWaitingManager).
		Permit(TriggerReject, StateRejected)

	machine := builder.Build(StateApproved)

	if triggers := machine.PermittedTriggers(); len(triggers) != 0 {
		t.Errorf("PermittedTriggers() = %v, want empty for terminal state", triggers)
	}
}
