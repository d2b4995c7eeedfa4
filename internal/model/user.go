package model

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is the account record returned by the upstream account API.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Merge returns a copy of u with the non-zero fields of upd applied.
// The upstream profile endpoint may return a partial user record.
func (u User) Merge(upd *User) User {
	if upd == nil {
		return u
	}
	if upd.ID != "" {
		u.ID = upd.ID
	}
	if upd.Name != "" {
		u.Name = upd.Name
	}
	if upd.Email != "" {
		u.Email = upd.Email
	}
	if upd.Role != "" {
		u.Role = upd.Role
	}
	return u
}
