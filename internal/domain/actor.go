package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated caller resolved from the session token.
type Actor struct {
	UserID string
	Email  string
	Name   string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the actor may act on a resource owned by userID.
// Admins may act on anything.
func (a Actor) Owns(userID string) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == userID)
}

// DisplayName is used for note attribution.
func (a Actor) DisplayName() string {
	if a.IsAdmin() {
		return "Admin"
	}
	if a.Name != "" {
		return a.Name
	}
	return "Customer"
}
