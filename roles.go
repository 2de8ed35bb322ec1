package sessiongate

// Role is the profile's authorization role
type Role = string

const (
	// RoleUser is a regular booking customer
	RoleUser Role = "user"
	// RoleAdmin manages the catalog, appointments, and other accounts
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is one of the predefined valid roles. The
// resolver passes stored values through without calling this; it exists for
// the write side, where admin edits should not persist junk.
func IsValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// ToggledRole returns the opposite role, matching the admin list's
// one-click elevation control.
func ToggledRole(r Role) Role {
	if r == RoleAdmin {
		return RoleUser
	}
	return RoleAdmin
}
