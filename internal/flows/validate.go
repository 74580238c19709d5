package flows

import (
	"context"
	"strings"
)

// RunAuthenticate verifies token and reloads the identity it names. The
// reload makes deactivation take effect before the token expires.
func RunAuthenticate(ctx context.Context, token string, deps Deps) (*Identity, error) {
	normalizeDeps(&deps)
	if deps.ParseToken == nil || deps.FindByID == nil {
		return nil, deps.Errors.EngineNotReady
	}
	event := deps.Events.Authenticate

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, deps.Errors.TokenInvalid
	}

	userID, err := deps.ParseToken(token)
	if err != nil {
		return nil, deps.Errors.TokenInvalid
	}

	ident, err := deps.FindByID(ctx, userID)
	if err == nil && !ident.Active {
		err = deps.Errors.IdentityNotFound
	}
	if err != nil {
		mapped := mapIdentityError(deps, err)
		if mapped == deps.Errors.AuthFailed {
			mapped = deps.Errors.TokenInvalid
		}
		deps.EmitAudit(ctx, event, false, userID, "", "", mapped, reasonMeta("identity_lookup"))
		return nil, mapped
	}

	pub := publicIdentity(ident)
	return &pub, nil
}
