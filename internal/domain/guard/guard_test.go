package guard

import (
	"strings"
	"testing"

	"github.com/assetdesk/assetdesk/internal/domain/entity"
)

var (
	superAdmin = entity.User{ID: "u-sa", Name: "Sana", Role: entity.RoleSuperAdmin, Status: entity.UserActive}
	admin      = entity.User{ID: "u-adm", Name: "Ada", Role: entity.RoleAdmin, Status: entity.UserActive}
	manager    = entity.User{ID: "u-mgr", Name: "Marc", Role: entity.RoleManager, Status: entity.UserActive}
	employee   = entity.User{ID: "u-emp", Name: "Eli", Role: entity.RoleUser, Status: entity.UserActive, ManagerID: "u-mgr", Department: "IT"}
)

func allUsers() []entity.User {
	return []entity.User{superAdmin, admin, manager, employee}
}

func TestCanDeleteUser(t *testing.T) {
	tests := []struct {
		name      string
		actor     entity.User
		target    entity.User
		users     []entity.User
		equipment []entity.Equipment
		approvals []entity.Approval
		allowed   bool
		reason    string
	}{
		{
			name:    "admin deletes plain user",
			actor:   admin,
			target:  employee,
			users:   allUsers(),
			allowed: true,
		},
		{
			name:   "target still holds equipment",
			actor:  admin,
			target: employee,
			users:  allUsers(),
			equipment: []entity.Equipment{
				{ID: "e1", AssetID: "LT-001", UserID: "u-emp"},
			},
			allowed: false,
			reason:  "still holds equipment",
		},
		{
			name:   "target is beneficiary of active approval",
			actor:  admin,
			target: employee,
			users:  allUsers(),
			approvals: []entity.Approval{
				{ID: "a1", BeneficiaryID: "u-emp", Status: entity.ApprovalWaitingManager},
			},
			allowed: false,
			reason:  "pending approval",
		},
		{
			name:   "terminal approvals do not block deletion",
			actor:  admin,
			target: employee,
			users:  allUsers(),
			approvals: []entity.Approval{
				{ID: "a1", BeneficiaryID: "u-emp", Status: entity.ApprovalRejected},
			},
			allowed: true,
		},
		{
			name:    "last active SuperAdmin is protected from everyone",
			actor:   superAdmin,
			target:  superAdmin,
			users:   allUsers(),
			allowed: false,
			reason:  "last active SuperAdmin",
		},
		{
			name:   "admin cannot delete SuperAdmin even among several",
			actor:  admin,
			target: superAdmin,
			users: []entity.User{superAdmin, admin,
				{ID: "u-sa2", Role: entity.RoleSuperAdmin, Status: entity.UserActive}},
			allowed: false,
			reason:  "only a SuperAdmin",
		},
		{
			name:   "SuperAdmin deletes another SuperAdmin",
			actor:  superAdmin,
			target: entity.User{ID: "u-sa2", Name: "Sam", Role: entity.RoleSuperAdmin, Status: entity.UserActive},
			users: []entity.User{superAdmin, admin,
				{ID: "u-sa2", Role: entity.RoleSuperAdmin, Status: entity.UserActive}},
			allowed: true,
		},
		{
			name:    "admin cannot delete itself",
			actor:   admin,
			target:  admin,
			users:   allUsers(),
			allowed: false,
			reason:  "delete themselves",
		},
		{
			name:    "manager cannot delete a manager",
			actor:   manager,
			target:  entity.User{ID: "u-mgr2", Name: "Mona", Role: entity.RoleManager, Status: entity.UserActive},
			users:   allUsers(),
			allowed: false,
			reason:  "may not delete",
		},
		{
			name:    "manager deletes a plain user",
			actor:   manager,
			target:  employee,
			users:   allUsers(),
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanDeleteUser(&tt.actor, &tt.target, tt.users, tt.equipment, tt.approvals)
			if d.Allowed != tt.allowed {
				t.Fatalf("CanDeleteUser() allowed = %v, want %v (reason %q)", d.Allowed, tt.allowed, d.Reason)
			}
			if !tt.allowed && !strings.Contains(d.Reason, tt.reason) {
				t.Errorf("CanDeleteUser() reason = %q, want it to contain %q", d.Reason, tt.reason)
			}
		})
	}
}

func TestCanUpdateUser(t *testing.T) {
	newRole := entity.RoleManager
	newDept := "Finance"
	newName := "Eliot"

	tests := []struct {
		name      string
		actor     entity.User
		target    entity.User
		patch     entity.UserPatch
		approvals []entity.Approval
		allowed   bool
	}{
		{
			name:    "rename is always fine",
			actor:   admin,
			target:  employee,
			patch:   entity.UserPatch{Name: &newName},
			allowed: true,
		},
		{
			name:   "role change blocked while manager validation pending",
			actor:  admin,
			target: employee,
			patch:  entity.UserPatch{Role: &newRole},
			approvals: []entity.Approval{
				{BeneficiaryID: "u-emp", Status: entity.ApprovalWaitingManager},
			},
			allowed: false,
		},
		{
			name:   "department change blocked while manager validation pending",
			actor:  admin,
			target: employee,
			patch:  entity.UserPatch{Department: &newDept},
			approvals: []entity.Approval{
				{BeneficiaryID: "u-emp", Status: entity.ApprovalWaitingManager},
			},
			allowed: false,
		},
		{
			name:   "role change allowed once approval reached IT",
			actor:  admin,
			target: employee,
			patch:  entity.UserPatch{Role: &newRole},
			approvals: []entity.Approval{
				{BeneficiaryID: "u-emp", Status: entity.ApprovalWaitingIT},
			},
			allowed: true,
		},
		{
			name:    "admin cannot edit SuperAdmin",
			actor:   admin,
			target:  superAdmin,
			patch:   entity.UserPatch{Name: &newName},
			allowed: false,
		},
		{
			name:    "SuperAdmin edits SuperAdmin",
			actor:   superAdmin,
			target:  superAdmin,
			patch:   entity.UserPatch{Name: &newName},
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanUpdateUser(&tt.actor, &tt.target, &tt.patch, tt.approvals)
			if d.Allowed != tt.allowed {
				t.Errorf("CanUpdateUser() allowed = %v, want %v (reason %q)", d.Allowed, tt.allowed, d.Reason)
			}
		})
	}
}

func TestCanDeleteEquipment(t *testing.T) {
	tests := []struct {
		name    string
		item    entity.Equipment
		history []entity.HistoryEvent
		allowed bool
	}{
		{
			name:    "available item with no history",
			item:    entity.Equipment{AssetID: "LT-001", Status: entity.StatusAvailable, AssignmentStatus: entity.AssignNone},
			allowed: true,
		},
		{
			name: "available item with only its creation event",
			item: entity.Equipment{AssetID: "LT-001", Status: entity.StatusAvailable, AssignmentStatus: entity.AssignNone},
			history: []entity.HistoryEvent{
				{Type: entity.EventCreate},
			},
			allowed: true,
		},
		{
			name:    "item in repair",
			item:    entity.Equipment{AssetID: "LT-002", Status: entity.StatusInRepair, AssignmentStatus: entity.AssignNone},
			allowed: true,
		},
		{
			name:    "assigned item is never deletable",
			item:    entity.Equipment{AssetID: "LT-003", Status: entity.StatusAssigned, AssignmentStatus: entity.AssignConfirmed, UserID: "u-emp"},
			allowed: false,
		},
		{
			name:    "reserved item is protected",
			item:    entity.Equipment{AssetID: "LT-004", Status: entity.StatusAvailable, AssignmentStatus: entity.AssignWaitingManager, UserID: "u-emp"},
			allowed: false,
		},
		{
			name: "item with a service record",
			item: entity.Equipment{AssetID: "LT-005", Status: entity.StatusAvailable, AssignmentStatus: entity.AssignNone},
			history: []entity.HistoryEvent{
				{Type: entity.EventCreate},
				{Type: entity.EventReturn},
			},
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanDeleteEquipment(&tt.item, tt.history)
			if d.Allowed != tt.allowed {
				t.Errorf("CanDeleteEquipment() allowed = %v, want %v (reason %q)", d.Allowed, tt.allowed, d.Reason)
			}
		})
	}
}

func TestCanTransitionApproval(t *testing.T) {
	base := entity.Approval{
		ID:            "a1",
		BeneficiaryID: "u-emp",
		Status:        entity.ApprovalWaitingManager,
	}

	tests := []struct {
		name    string
		status  entity.ApprovalStatus
		next    entity.ApprovalStatus
		actor   entity.User
		allowed bool
	}{
		{"manager validates own report", entity.ApprovalWaitingManager, entity.ApprovalWaitingIT, manager, true},
		{"manager rejects at first step", entity.ApprovalWaitingManager, entity.ApprovalRejected, manager, true},
		{"admin is not the direct manager", entity.ApprovalWaitingManager, entity.ApprovalWaitingIT, admin, false},
		{"manager cannot skip to approved", entity.ApprovalWaitingManager, entity.ApprovalApproved, manager, false},
		{"admin approves at IT step", entity.ApprovalWaitingIT, entity.ApprovalApproved, admin, true},
		{"superadmin rejects at IT step", entity.ApprovalWaitingIT, entity.ApprovalRejected, superAdmin, true},
		{"manager cannot decide IT step", entity.ApprovalWaitingIT, entity.ApprovalApproved, manager, false},
		{"approved is terminal", entity.ApprovalApproved, entity.ApprovalWaitingManager, superAdmin, false},
		{"rejected is terminal", entity.ApprovalRejected, entity.ApprovalWaitingIT, superAdmin, false},
		{"unknown status", entity.ApprovalWaitingManager, entity.ApprovalStatus("BOGUS"), superAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approval := base
			approval.Status = tt.status
			d := CanTransitionApproval(&approval, tt.next, &tt.actor, allUsers())
			if d.Allowed != tt.allowed {
				t.Errorf("CanTransitionApproval(%s -> %s) allowed = %v, want %v (reason %q)",
					tt.status, tt.next, d.Allowed, tt.allowed, d.Reason)
			}
			if !d.Allowed && d.Reason == "" {
				t.Error("denial must carry a reason")
			}
		})
	}
}

func TestNilActorIsDeniedNotPanicking(t *testing.T) {
	target := employee
	approval := entity.Approval{ID: "a1", BeneficiaryID: "u-emp", Status: entity.ApprovalWaitingManager}
	newName := "Eliot"

	decisions := []entity.Decision{
		CanDeleteUser(nil, &target, allUsers(), nil, nil),
		CanUpdateUser(nil, &target, &entity.UserPatch{Name: &newName}, nil),
		CanTransitionApproval(&approval, entity.ApprovalWaitingIT, nil, allUsers()),
	}
	for i, d := range decisions {
		if d.Allowed {
			t.Errorf("decision %d: nil actor must be denied", i)
		}
		if d.Reason == "" {
			t.Errorf("decision %d: denial must carry a reason", i)
		}
	}
}

func TestCanCreateUser(t *testing.T) {
	dup := entity.User{ID: "u-emp", Name: "Clone", Email: "other@corp.test", Role: entity.RoleUser}
	if d := CanCreateUser(&dup, allUsers()); d.Allowed {
		t.Error("CanCreateUser() should deny duplicate id")
	}

	fresh := entity.User{ID: "u-new", Name: "Nora", Email: "nora@corp.test", Role: entity.RoleUser}
	if d := CanCreateUser(&fresh, allUsers()); !d.Allowed {
		t.Errorf("CanCreateUser() denied fresh user: %s", d.Reason)
	}

	badRole := entity.User{ID: "u-x", Role: entity.Role("Wizard")}
	if d := CanCreateUser(&badRole, nil); d.Allowed {
		t.Error("CanCreateUser() should deny unknown role")
	}
}
