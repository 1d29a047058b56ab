package store

import (
	"context"
	"fmt"

	"github.com/assetdesk/assetdesk/internal/domain/entity"
	"github.com/assetdesk/assetdesk/internal/domain/guard"
)

// AddUser adds a new user record. The decision is denied for duplicate
// ids/emails or unknown roles.
func (s *Store) AddUser(ctx context.Context, actor *entity.User, user entity.User) (entity.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = newID()
	}
	if user.Status == "" {
		user.Status = entity.UserActive
	}

	if decision := guard.CanCreateUser(&user, s.users); !decision.Allowed {
		s.appendDenialLocked(actor, entity.TargetUser, user.ID, user.Name, "create user", decision.Reason)
		return decision, nil
	}

	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users = append(s.users, user)

	s.appendEventLocked(entity.HistoryEvent{
		Type:        entity.EventCreate,
		TargetType:  entity.TargetUser,
		TargetID:    user.ID,
		TargetName:  user.Name,
		Description: fmt.Sprintf("user %s created with role %s", user.Name, user.Role),
		Metadata:    map[string]string{"role": user.Role.String(), "department": user.Department},
	}, actor)

	s.logInfo("User created", "user_id", user.ID, "role", user.Role.String())
	s.notifyMutation(CollectionUsers, CollectionEvents)
	return entity.Allow(), nil
}

// UpdateUser applies a partial update to a user. Role and department edits
// are guarded against in-flight manager validations.
func (s *Store) UpdateUser(ctx context.Context, actor *entity.User, id string, patch entity.UserPatch) (entity.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndexLocked(id)
	if idx < 0 {
		return entity.Decision{}, fmt.Errorf("update user %s: %w", id, ErrNotFound)
	}
	target := s.users[idx]

	if decision := guard.CanUpdateUser(actor, &target, &patch, s.approvals); !decision.Allowed {
		s.appendDenialLocked(actor, entity.TargetUser, target.ID, target.Name, "update user", decision.Reason)
		return decision, nil
	}

	updated := patch.Apply(target)
	updated.UpdatedAt = s.now()
	s.users[idx] = updated

	meta := map[string]string{}
	if target.Role != updated.Role {
		meta["from_role"] = target.Role.String()
		meta["to_role"] = updated.Role.String()
	}
	if target.Department != updated.Department {
		meta["from_department"] = target.Department
		meta["to_department"] = updated.Department
	}

	s.appendEventLocked(entity.HistoryEvent{
		Type:        entity.EventUpdate,
		TargetType:  entity.TargetUser,
		TargetID:    updated.ID,
		TargetName:  updated.Name,
		Description: fmt.Sprintf("user %s updated", updated.Name),
		Metadata:    meta,
	}, actor)

	s.logInfo("User updated", "user_id", updated.ID)
	s.notifyMutation(CollectionUsers, CollectionEvents)
	return entity.Allow(), nil
}

// DeleteUser removes a user after the guard clears custody, approval and
// hierarchy protections.
func (s *Store) DeleteUser(ctx context.Context, actor *entity.User, id string) (entity.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndexLocked(id)
	if idx < 0 {
		return entity.Decision{}, fmt.Errorf("delete user %s: %w", id, ErrNotFound)
	}
	target := s.users[idx]

	if decision := guard.CanDeleteUser(actor, &target, s.users, s.equipment, s.approvals); !decision.Allowed {
		s.appendDenialLocked(actor, entity.TargetUser, target.ID, target.Name, "delete user", decision.Reason)
		return decision, nil
	}

	s.users = append(s.users[:idx], s.users[idx+1:]...)

	s.appendEventLocked(entity.HistoryEvent{
		Type:        entity.EventDelete,
		TargetType:  entity.TargetUser,
		TargetID:    target.ID,
		TargetName:  target.Name,
		Description: fmt.Sprintf("user %s deleted", target.Name),
		Metadata:    map[string]string{"role": target.Role.String()},
	}, actor)

	s.logInfo("User deleted", "user_id", target.ID)
	s.notifyMutation(CollectionUsers, CollectionEvents)
	return entity.Allow(), nil
}

func (s *Store) userIndexLocked(id string) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}
