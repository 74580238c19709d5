package codeAuth

import "errors"

// Every failure a flow returns matches exactly one of these with errors.Is.
// Identity misses, wrong codes, expired codes and replays all collapse into
// ErrAuthFailed so responses never reveal which guard failed.
var (
	// ErrValidation is the parent of every input validation error.
	ErrValidation = errors.New("validation failed")

	ErrInvalidEmail     = validationError("email.invalid")
	ErrInvalidCode      = validationError("code.invalid")
	ErrPasswordPolicy   = validationError("password.invalid")
	ErrPasswordMismatch = validationError("confirmPassword.invalid")

	// ErrAuthFailed is the single non-distinguishing authentication failure.
	ErrAuthFailed = errors.New("auth.fail")
	// ErrTokenInvalid is returned by Authenticate for bad, expired or orphaned tokens.
	ErrTokenInvalid = errors.New("auth.token.invalid")
	// ErrRateLimited is returned when an issuance or login throttle trips.
	ErrRateLimited = errors.New("rate limited")
	// ErrInternal wraps storage, hashing and signing failures.
	ErrInternal = errors.New("internal error")
	// ErrEngineNotReady is returned by methods on a nil or half-built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrIdentityNotFound is what IdentityStore implementations return for a
	// missing identity. The Engine never returns it to callers.
	ErrIdentityNotFound = errors.New("identity not found")
)

type validationErr struct {
	key string
}

func validationError(key string) error {
	return &validationErr{key: key}
}

func (e *validationErr) Error() string { return e.key }

func (e *validationErr) Unwrap() error { return ErrValidation }
