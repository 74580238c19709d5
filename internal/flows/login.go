package flows

import (
	"context"
	"errors"
	"strings"
	"time"
)

// RunLogin verifies a password for an active identity above the
// lowest-privilege role. Lowest-role identities sign in with codes only.
func RunLogin(ctx context.Context, email, password string, deps Deps) (*Result, error) {
	normalizeDeps(&deps)
	if deps.FindActiveByEmail == nil || deps.VerifyPassword == nil || deps.IssueToken == nil {
		return nil, deps.Errors.EngineNotReady
	}
	event := deps.Events.Login

	email = strings.ToLower(strings.TrimSpace(email))
	fail := func(userID string, err error, reason string) (*Result, error) {
		deps.MetricInc(deps.Metrics.LoginFailure)
		if errors.Is(err, deps.Errors.AuthFailed) && deps.RecordLoginFailure != nil {
			deps.RecordLoginFailure(ctx, email)
		}
		deps.EmitAudit(ctx, event, false, userID, "", "", err, reasonMeta(reason))
		return nil, err
	}

	if deps.CheckLoginLimiter != nil {
		if err := deps.CheckLoginLimiter(ctx, email); err != nil {
			if !errors.Is(err, deps.Errors.RateLimited) {
				err = internalError(deps, err)
			}
			deps.MetricInc(deps.Metrics.LoginRateLimited)
			deps.EmitAudit(ctx, event, false, "", "", "", err, reasonMeta("rate_limited"))
			return nil, err
		}
	}

	ident, err := deps.FindActiveByEmail(ctx, email)
	if err != nil {
		return fail("", mapIdentityError(deps, err), "identity_lookup")
	}
	if !ident.Active {
		return fail(ident.ID, deps.Errors.AuthFailed, "inactive")
	}
	if ident.Role == deps.LowestRole {
		return fail(ident.ID, deps.Errors.AuthFailed, "role")
	}
	if ident.PasswordDigest == "" {
		return fail(ident.ID, deps.Errors.AuthFailed, "no_password")
	}

	ok, err := deps.VerifyPassword(password, ident.PasswordDigest)
	if err != nil {
		deps.Logger.ErrorContext(ctx, "verify password failed", "user_id", ident.ID, "error", err)
		return fail(ident.ID, internalError(deps, err), "verify_failed")
	}
	if !ok {
		return fail(ident.ID, deps.Errors.AuthFailed, "password_mismatch")
	}

	token, err := deps.IssueToken(ident, time.Time{}, deps.TokenTTL)
	if err != nil {
		deps.Logger.ErrorContext(ctx, "issue token failed", "user_id", ident.ID, "error", err)
		return fail(ident.ID, internalError(deps, err), "token")
	}

	if deps.ResetLoginLimiter != nil {
		deps.ResetLoginLimiter(ctx, email)
	}
	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, event, true, ident.ID, "", "", nil, nil)
	return &Result{Token: token, Identity: publicIdentity(ident)}, nil
}
