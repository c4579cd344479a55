package domain

import (
	"errors"
	"time"
)

// Role is the visibility class of a user. Owners see everything; members have
// their actions escalated to owners.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailNotFound      = errors.New("user has no email address")
	ErrForbidden          = errors.New("access forbidden")
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleMember
}

// UserIdentity is the read-only view of a user cached by the directory and
// carried by authenticated sessions.
type UserIdentity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
}

func (u UserIdentity) IsOwner() bool { return u.Role == RoleOwner }

// User is the stored account, including the credential hash used by login.
type User struct {
	UserIdentity
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}
