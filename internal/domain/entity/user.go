package entity

import "time"

// UserStatus represents whether a user account is active
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

// User represents a staff member who can hold equipment and act in approvals
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Department string     `json:"department"`
	ManagerID  string     `json:"manager_id,omitempty"`
	Status     UserStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsActive returns true if the account is active
func (u *User) IsActive() bool {
	return u.Status == UserActive
}

// UserPatch describes a partial update to a user record.
// Nil fields are left untouched.
type UserPatch struct {
	Name       *string     `json:"name,omitempty"`
	Email      *string     `json:"email,omitempty"`
	Role       *Role       `json:"role,omitempty"`
	Department *string     `json:"department,omitempty"`
	ManagerID  *string     `json:"manager_id,omitempty"`
	Status     *UserStatus `json:"status,omitempty"`
}

// ChangesRole returns true if the patch would move the user to a different role
func (p *UserPatch) ChangesRole(u *User) bool {
	return p.Role != nil && *p.Role != u.Role
}

// ChangesDepartment returns true if the patch would move the user to a different department
func (p *UserPatch) ChangesDepartment(u *User) bool {
	return p.Department != nil && *p.Department != u.Department
}

// Apply returns a copy of u with the patch applied
func (p *UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Department != nil {
		u.Department = *p.Department
	}
	if p.ManagerID != nil {
		u.ManagerID = *p.ManagerID
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	return u
}
