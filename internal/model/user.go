package model

import "time"

// Role names stored in users.role and carried in token claims.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// ValidRole reports whether r is one of the enumerated roles.
func ValidRole(r string) bool { return r == RoleCustomer || r == RoleAdmin }

// User represents an application user record as stored in the `users`
// table.  PII is a free-text field that doubles as a scoring secret for
// participants, so it is only ever shown to its owner or an admin.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name.
//	PasswordHash – bcrypt hashed password.
//	Role         – customer or admin.
//	Name         – optional display name.
//	PII          – optional free text (seeded secret for participants).
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	Name         *string   // users.name (nullable)
	PII          *string   // users.pii (nullable)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// DisplayName returns the profile name or an empty string.
func (u User) DisplayName() string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}

// Secret returns the PII field or an empty string.
func (u User) Secret() string {
	if u.PII == nil {
		return ""
	}
	return *u.PII
}
