package flows

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/MrEthical07/codeAuth/credential"
)

// parseEmail accepts a bare address only and returns it lowercased.
func parseEmail(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", false
	}
	// ParseAddress accepts "Name <a@b>" and comments; only the address part is allowed.
	if addr.Address != trimmed {
		return "", false
	}

	return strings.ToLower(addr.Address), true
}

// checkCode measures the raw input. Codes are never trimmed, so padding counts
// toward the length limit.
func checkCode(code string) (string, bool) {
	return code, len(code) <= credential.CodeLength && strings.TrimSpace(code) != ""
}

func internalError(deps Deps, err error) error {
	return fmt.Errorf("%w: %w", deps.Errors.Internal, err)
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// mapIdentityError collapses identity misses into AuthFailed.
func mapIdentityError(deps Deps, err error) error {
	switch {
	case errors.Is(err, deps.Errors.IdentityNotFound):
		return deps.Errors.AuthFailed
	case isContextError(err):
		return err
	default:
		return internalError(deps, err)
	}
}

// mapRedeemError collapses missing, expired, and replayed codes into AuthFailed.
func mapRedeemError(deps Deps, err error) error {
	switch {
	case errors.Is(err, credential.ErrNotFound):
		return deps.Errors.AuthFailed
	case errors.Is(err, credential.ErrInvalidCode):
		return deps.Errors.InvalidCode
	case isContextError(err):
		return err
	default:
		return internalError(deps, err)
	}
}

func publicIdentity(ident Identity) Identity {
	ident.PasswordDigest = ""
	return ident
}

func displayName(deps Deps, ident Identity) string {
	name := strings.TrimSpace(ident.FirstName + " " + ident.LastName)
	if name == "" {
		return deps.DefaultName
	}
	return name
}

func reasonMeta(reason string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"reason": reason}
	}
}
