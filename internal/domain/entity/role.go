package entity

// Role represents a user's position in the authorization hierarchy
type Role string

const (
	RoleUser       Role = "User"
	RoleManager    Role = "Manager"
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "SuperAdmin"
)

var validRoles = map[Role]bool{
	RoleUser:       true,
	RoleManager:    true,
	RoleAdmin:      true,
	RoleSuperAdmin: true,
}

var roleRanks = map[Role]int{
	RoleUser:       0,
	RoleManager:    1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is one of the defined roles
func (r Role) IsValid() bool {
	return validRoles[r]
}

// Rank returns the position of the role in the hierarchy (higher outranks lower)
func (r Role) Rank() int {
	return roleRanks[r]
}

// Outranks returns true if r is strictly higher in the hierarchy than other
func (r Role) Outranks(other Role) bool {
	return r.Rank() > other.Rank()
}

// IsPrivileged returns true for roles allowed to view sensitive audit events
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}
