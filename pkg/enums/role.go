package enums

import "fmt"

// Role represents a platform-wide access role.
type Role string

const (
	RoleOwner      Role = "owner"
	RolePartner    Role = "partner"
	RoleAdmin      Role = "admin"
	RoleSubscriber Role = "subscriber"
	RoleUser       Role = "user"
	RoleGuest      Role = "guest"
)

// validRoles is ordered by precedence, strongest first.
var validRoles = []Role{
	RoleOwner,
	RolePartner,
	RoleAdmin,
	RoleSubscriber,
	RoleUser,
	RoleGuest,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Precedence returns the role's rank, lower is stronger. Unknown roles
// rank below guest.
func (r Role) Precedence() int {
	for i, candidate := range validRoles {
		if candidate == r {
			return i
		}
	}
	return len(validRoles)
}

// Outranks reports whether r carries at least the privileges of other.
func (r Role) Outranks(other Role) bool {
	return r.Precedence() <= other.Precedence()
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
