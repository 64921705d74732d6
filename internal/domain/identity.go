package domain

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the acting user attached to a request by authentication.
type Identity struct {
	ID   string
	Role string
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Owns reports whether the identity may act on a record owned by userID.
func (i Identity) Owns(userID string) bool { return i.ID != "" && i.ID == userID }
