package flows

import (
	"context"

	"github.com/MrEthical07/codeAuth/credential"
)

// RunRequestResetPassword issues a reset code to an active identity whose
// role is above the lowest-privilege role.
func RunRequestResetPassword(ctx context.Context, email string, deps Deps) error {
	normalizeDeps(&deps)
	if !issueReady(deps) {
		return deps.Errors.EngineNotReady
	}

	req, err := beginIssue(ctx, deps, deps.Events.RequestResetPassword, credential.PurposeRequestResetPassword, email)
	if err != nil {
		return err
	}

	ident, err := deps.FindActiveByEmail(ctx, req.email)
	if err != nil {
		return rejectIdentity(ctx, deps, req, "", mapIdentityError(deps, err), "identity_lookup")
	}
	if !ident.Active {
		return rejectIdentity(ctx, deps, req, ident.ID, deps.Errors.AuthFailed, "inactive")
	}
	if ident.Role == deps.LowestRole {
		return rejectIdentity(ctx, deps, req, ident.ID, deps.Errors.AuthFailed, "role")
	}

	return issueCode(ctx, deps, req, ident)
}

// RunResetPassword redeems a reset code and replaces the password of the
// identity it was issued to. No token is returned.
func RunResetPassword(ctx context.Context, binding, code, password, confirm string, deps Deps) error {
	normalizeDeps(&deps)
	if deps.Redeem == nil || deps.FindActiveByEmail == nil || deps.HashPassword == nil || deps.UpdatePassword == nil {
		return deps.Errors.EngineNotReady
	}
	event := deps.Events.ResetPassword

	if deps.ValidatePassword != nil {
		if err := deps.ValidatePassword(password); err != nil {
			deps.MetricInc(deps.Metrics.ValidationFailure)
			deps.EmitAudit(ctx, event, false, "", "", "", deps.Errors.PasswordPolicy, reasonMeta("password_policy"))
			return deps.Errors.PasswordPolicy
		}
	}
	if confirm != password {
		deps.MetricInc(deps.Metrics.ValidationFailure)
		deps.EmitAudit(ctx, event, false, "", "", "", deps.Errors.PasswordMismatch, reasonMeta("confirm_mismatch"))
		return deps.Errors.PasswordMismatch
	}
	code, ok := checkCode(code)
	if !ok || binding == "" {
		deps.MetricInc(deps.Metrics.ValidationFailure)
		deps.EmitAudit(ctx, event, false, "", "", "", deps.Errors.InvalidCode, reasonMeta("invalid_code"))
		return deps.Errors.InvalidCode
	}

	// Hash first so a hashing failure leaves the code redeemable.
	digest, err := deps.HashPassword(password)
	if err != nil {
		mapped := internalError(deps, err)
		deps.EmitAudit(ctx, event, false, "", binding, "", mapped, reasonMeta("hash_failed"))
		return mapped
	}

	cred, err := redeem(ctx, deps, credential.Matcher{Binding: binding, Code: code})
	if err != nil {
		deps.EmitAudit(ctx, event, false, "", binding, "", err, reasonMeta("credential"))
		return err
	}

	ident, err := deps.FindActiveByEmail(ctx, cred.Email)
	if err == nil && !ident.Active {
		err = deps.Errors.IdentityNotFound
	}
	if err != nil {
		mapped := mapIdentityError(deps, err)
		deps.EmitAudit(ctx, event, false, "", cred.Binding, cred.Purpose.String(), mapped, reasonMeta("identity_lookup"))
		return mapped
	}

	if err := deps.UpdatePassword(ctx, ident.ID, digest); err != nil {
		mapped := internalError(deps, err)
		deps.Logger.ErrorContext(ctx, "update password failed", "user_id", ident.ID, "error", err)
		deps.EmitAudit(ctx, event, false, ident.ID, cred.Binding, cred.Purpose.String(), mapped, reasonMeta("update_failed"))
		return mapped
	}

	deps.MetricInc(deps.Metrics.PasswordReset)
	deps.EmitAudit(ctx, event, true, ident.ID, cred.Binding, cred.Purpose.String(), nil, nil)
	return nil
}
