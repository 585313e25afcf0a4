package models

// Identity is the authenticated caller, taken from a verified session and
// passed explicitly to every service call that needs it.
type Identity struct {
	UserID      int
	Email       string
	Name        string
	Role        UserRole
	ProfileRole string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
