package domain

// RoleAdmin marks club staff with moderation rights
const RoleAdmin = "admin"

// Identity is the caller identity, passed explicitly to every service
// operation instead of being read from ambient state.
type Identity struct {
	UserID string
	Roles  []string
	Member bool
}

// Anonymous is the identity of an unauthenticated caller
var Anonymous = Identity{}

// IsAuthenticated reports whether the caller is logged in
func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

// IsAdmin reports whether the caller holds the admin role
func (i Identity) IsAdmin() bool {
	for _, r := range i.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}
