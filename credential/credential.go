package credential

import (
	"errors"
	"fmt"
	"time"
)

// CodeLength is the number of characters in every issued code. Redemption
// rejects longer input before touching a Store.
const CodeLength = 8

var (
	// ErrNotFound is returned when no live credential matches.
	ErrNotFound = errors.New("credential not found")
	// ErrCodeCollision is returned by Store.Replace when the code is already
	// held by a live credential for the same binding.
	ErrCodeCollision = errors.New("credential code collision")
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("credential store unavailable")
	// ErrInvalidCode is returned by Manager.Redeem for empty or oversize codes.
	ErrInvalidCode = errors.New("credential code invalid")
)

// Purpose tags why a credential was issued.
type Purpose uint8

const (
	PurposeRequestLogin Purpose = iota + 1
	PurposeResendCode
	PurposeRequestResetPassword
	PurposeSetupPassword
)

var purposeNames = map[Purpose]string{
	PurposeRequestLogin:         "requestLogin",
	PurposeResendCode:           "resendCode",
	PurposeRequestResetPassword: "requestToResetPassword",
	PurposeSetupPassword:        "setupPassword",
}

// String returns the stored name of the purpose.
func (p Purpose) String() string {
	if name, ok := purposeNames[p]; ok {
		return name
	}
	return fmt.Sprintf("purpose(%d)", uint8(p))
}

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	_, ok := purposeNames[p]
	return ok
}

// ParsePurpose converts a stored purpose name back to a Purpose.
func ParsePurpose(name string) (Purpose, error) {
	for p, n := range purposeNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown credential purpose %q", name)
}

// Credential is one issued code.
type Credential struct {
	ID        string
	Binding   string
	Email     string
	Code      string
	Purpose   Purpose
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the credential is past its expiry at now.
// A credential whose ExpiresAt equals now is still valid.
func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

// Matcher selects the credential to redeem. Binding and Code are required.
// When Email is set the stored email must also match, case-insensitively.
type Matcher struct {
	Binding string
	Email   string
	Code    string
}
