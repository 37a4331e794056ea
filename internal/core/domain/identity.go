package domain

import "errors"

// Role is the coarse access level carried in a verified credential.
type Role string

const (
	RoleAnonymous Role = ""
	RoleUser      Role = "user"
	RoleAgent     Role = "agent"
	RoleAdmin     Role = "admin"
)

// KnownRole reports whether r is a role the system issues.
func KnownRole(r Role) bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// Identity is the caller of a single request. It is built once from the
// verified token claims, never persisted, and never mutated afterwards.
// The zero value is the anonymous caller.
type Identity struct {
	SubjectID string
	Email     string
	Role      Role
}

// IsAnonymous reports whether no verified credential backs this identity.
func (id Identity) IsAnonymous() bool {
	return id.SubjectID == "" || id.Role == RoleAnonymous
}

var ErrUnauthenticated = errors.New("authentication required")
var ErrForbidden = errors.New("access forbidden")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
