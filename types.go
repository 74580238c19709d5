package codeAuth

import (
	"context"
)

// Role is an identity's privilege level. Lower values are more privileged.
type Role int

const (
	RoleAdmin    Role = 1
	RoleAgent    Role = 2
	RoleProvider Role = 3
	// RoleUser is the lowest-privilege role. It signs in with codes only and
	// cannot request a password reset.
	RoleUser Role = 4
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleAgent:
		return "Agent"
	case RoleProvider:
		return "Provider"
	case RoleUser:
		return "User"
	default:
		return "Unknown"
	}
}

// Identity is the account the engine authenticates. PasswordDigest is empty
// until a password has been set, and is never returned by Engine methods.
type Identity struct {
	ID             string
	Email          string
	PasswordDigest string
	Active         bool
	Role           Role
	FirstName      string
	LastName       string
}

// IdentityStore is the account storage the Engine reads and updates.
// Lookups that find nothing must return an error matching ErrIdentityNotFound.
//
// Emails are passed lowercased and trimmed.
type IdentityStore interface {
	// FindActiveByEmail returns the identity only when it is active.
	FindActiveByEmail(ctx context.Context, email string) (Identity, error)
	// FindByEmail returns the identity regardless of its active flag.
	FindByEmail(ctx context.Context, email string) (Identity, error)
	FindByID(ctx context.Context, id string) (Identity, error)
	UpdatePassword(ctx context.Context, id, digest string) error
	// UpdatePasswordAndActivate sets the digest and the active flag in one write.
	UpdatePasswordAndActivate(ctx context.Context, id, digest string) error
}

// AuthResult is returned by every flow that issues a session token.
type AuthResult struct {
	Token    string
	Identity Identity
}
