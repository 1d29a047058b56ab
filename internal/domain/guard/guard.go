// Package guard contains the pure authorization decisions consulted before
// every mutating operation. Guards receive entity snapshots and the acting
// user, and return a Decision; they never log and never mutate state.
package guard

import (
	"fmt"

	"github.com/assetdesk/assetdesk/internal/domain/entity"
)

// CanCreateUser evaluates whether a new user record may be added.
func CanCreateUser(newUser *entity.User, users []entity.User) entity.Decision {
	if !newUser.Role.IsValid() {
		return entity.Deny(fmt.Sprintf("unknown role %q", newUser.Role))
	}
	for i := range users {
		if users[i].ID == newUser.ID {
			return entity.Deny(fmt.Sprintf("a user with id %s already exists", newUser.ID))
		}
		if newUser.Email != "" && users[i].Email == newUser.Email {
			return entity.Deny(fmt.Sprintf("a user with email %s already exists", newUser.Email))
		}
	}
	return entity.Allow()
}

// CanDeleteUser evaluates whether the actor may delete the target user.
// Rules, in order:
//   - the target must not hold any equipment
//   - the target must not be party to an active approval
//   - the last active SuperAdmin can never be deleted
//   - protected roles cannot delete themselves
//   - a SuperAdmin target requires a SuperAdmin actor; otherwise the actor
//     must strictly outrank the target
func CanDeleteUser(actor, target *entity.User, users []entity.User, equipment []entity.Equipment, approvals []entity.Approval) entity.Decision {
	if actor == nil {
		return denyNoActor()
	}

	for i := range equipment {
		if equipment[i].UserID == target.ID {
			return entity.Deny(fmt.Sprintf("%s still holds equipment %s; return it before deleting the account", target.Name, equipment[i].AssetID))
		}
	}

	for i := range approvals {
		a := &approvals[i]
		if !a.IsActive() {
			continue
		}
		if a.BeneficiaryID == target.ID || a.RequesterID == target.ID {
			return entity.Deny(fmt.Sprintf("%s is part of a pending approval request; resolve it before deleting the account", target.Name))
		}
	}

	if target.Role == entity.RoleSuperAdmin && target.IsActive() && countActiveSuperAdmins(users) <= 1 {
		return entity.Deny("cannot delete the last active SuperAdmin")
	}

	if actor.ID == target.ID && target.Role.IsPrivileged() {
		return entity.Deny("privileged accounts cannot delete themselves")
	}

	if target.Role == entity.RoleSuperAdmin {
		if actor.Role != entity.RoleSuperAdmin {
			return entity.Deny("only a SuperAdmin may delete a SuperAdmin account")
		}
		return entity.Allow()
	}

	if !actor.Role.Outranks(target.Role) {
		return entity.Deny(fmt.Sprintf("role %s may not delete a %s account", actor.Role, target.Role))
	}

	return entity.Allow()
}

// CanUpdateUser evaluates whether the actor may apply the patch to the target.
// Role and department edits are frozen while the target is the beneficiary of
// an approval still waiting on manager validation, so the request does not
// route to a stale manager mid-flight.
func CanUpdateUser(actor, target *entity.User, patch *entity.UserPatch, approvals []entity.Approval) entity.Decision {
	if actor == nil {
		return denyNoActor()
	}

	if target.Role == entity.RoleSuperAdmin && actor.Role != entity.RoleSuperAdmin {
		return entity.Deny("only a SuperAdmin may edit a SuperAdmin account")
	}

	if patch.ChangesRole(target) || patch.ChangesDepartment(target) {
		for i := range approvals {
			a := &approvals[i]
			if a.BeneficiaryID == target.ID && a.Status == entity.ApprovalWaitingManager {
				return entity.Deny(fmt.Sprintf("%s has an approval awaiting manager validation; role and department changes are blocked until it is resolved", target.Name))
			}
		}
	}

	if patch.Role != nil && !patch.Role.IsValid() {
		return entity.Deny(fmt.Sprintf("unknown role %q", *patch.Role))
	}

	return entity.Allow()
}

// CanDeleteEquipment evaluates whether an item may be deleted.
// history must be the item's own movement history. Items in custody, items
// reserved by a pending approval, and items with a service record beyond
// their creation event are protected.
func CanDeleteEquipment(item *entity.Equipment, history []entity.HistoryEvent) entity.Decision {
	if item.Status != entity.StatusAvailable && item.Status != entity.StatusInRepair {
		return entity.Deny(fmt.Sprintf("equipment %s is currently %s and cannot be deleted", item.AssetID, item.Status))
	}

	if item.AssignmentStatus.InCustody() {
		return entity.Deny(fmt.Sprintf("equipment %s is reserved by a pending assignment", item.AssetID))
	}

	for i := range history {
		if history[i].Type != entity.EventCreate {
			return entity.Deny(fmt.Sprintf("equipment %s has a movement history and must be kept for audit continuity", item.AssetID))
		}
	}

	return entity.Allow()
}

// CanTransitionApproval evaluates whether the actor may move the approval to
// nextStatus. The adjacency of the fixed approval path is checked first, then
// the actor's authority over the current step: the beneficiary's direct
// manager decides the manager step, Admin or SuperAdmin decide the IT step.
func CanTransitionApproval(approval *entity.Approval, nextStatus entity.ApprovalStatus, actor *entity.User, users []entity.User) entity.Decision {
	if actor == nil {
		return denyNoActor()
	}

	if !nextStatus.IsValid() {
		return entity.Deny(fmt.Sprintf("unknown approval status %q", nextStatus))
	}

	if !approval.Status.CanTransitionTo(nextStatus) {
		return entity.Deny(fmt.Sprintf("an approval cannot move from %s to %s", approval.Status, nextStatus))
	}

	switch approval.Status {
	case entity.ApprovalWaitingManager:
		beneficiary := findUser(users, approval.BeneficiaryID)
		if beneficiary == nil {
			return entity.Deny(fmt.Sprintf("beneficiary %s no longer exists", approval.BeneficiaryID))
		}
		if beneficiary.ManagerID != actor.ID {
			return entity.Deny(fmt.Sprintf("only the direct manager of %s may decide this step", beneficiary.Name))
		}
	case entity.ApprovalWaitingIT:
		if actor.Role != entity.RoleAdmin && actor.Role != entity.RoleSuperAdmin {
			return entity.Deny("only IT administrators may decide this step")
		}
	}

	return entity.Allow()
}

// denyNoActor is the uniform denial for calls without a resolved acting user
func denyNoActor() entity.Decision {
	return entity.Deny("no acting user resolved for this operation")
}

func countActiveSuperAdmins(users []entity.User) int {
	n := 0
	for i := range users {
		if users[i].Role == entity.RoleSuperAdmin && users[i].IsActive() {
			n++
		}
	}
	return n
}

func findUser(users []entity.User, id string) *entity.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}
