package flows

import (
	"context"

	"github.com/MrEthical07/codeAuth/credential"
)

// RunRequestSetupPassword issues an activation code to an identity that has
// no password yet.
func RunRequestSetupPassword(ctx context.Context, email string, deps Deps) error {
	normalizeDeps(&deps)
	if deps.Bind == nil || deps.Issue == nil || deps.FindByEmail == nil {
		return deps.Errors.EngineNotReady
	}

	req, err := beginIssue(ctx, deps, deps.Events.RequestSetupPassword, credential.PurposeSetupPassword, email)
	if err != nil {
		return err
	}

	ident, err := deps.FindByEmail(ctx, req.email)
	if err != nil {
		return rejectIdentity(ctx, deps, req, "", mapIdentityError(deps, err), "identity_lookup")
	}
	if ident.PasswordDigest != "" {
		return rejectIdentity(ctx, deps, req, ident.ID, deps.Errors.AuthFailed, "already_activated")
	}

	return issueCode(ctx, deps, req, ident)
}

// RunSetupPassword redeems an activation code, sets the password, activates
// the identity and returns a session token.
func RunSetupPassword(ctx context.Context, binding, code, password, confirm string, deps Deps) (*Result, error) {
	normalizeDeps(&deps)
	if deps.Redeem == nil || deps.FindByEmail == nil || deps.HashPassword == nil ||
		deps.UpdatePasswordAndActivate == nil || deps.IssueToken == nil {
		return nil, deps.Errors.EngineNotReady
	}
	event := deps.Events.SetupPassword

	if password == "" {
		deps.MetricInc(deps.Metrics.ValidationFailure)
		deps.EmitAudit(ctx, event, false, "", "", "", deps.Errors.PasswordPolicy, reasonMeta("empty_password"))
		return nil, deps.Errors.PasswordPolicy
	}
	if deps.PolicyOnSetup && deps.ValidatePassword != nil {
		if err := deps.ValidatePassword(password); err != nil {
			deps.MetricInc(deps.Metrics.ValidationFailure)
			deps.EmitAudit(ctx, event, false, "", "", "", deps.Errors.PasswordPolicy, reasonMeta("password_policy"))
			return nil, deps.Errors.PasswordPolicy
		}
	}
	if confirm != password {
		deps.MetricInc(deps.Metrics.ValidationFailure)
		deps.EmitAudit(ctx, event, false, "", "", "", deps.Errors.PasswordMismatch, reasonMeta("confirm_mismatch"))
		return nil, deps.Errors.PasswordMismatch
	}
	code, ok := checkCode(code)
	if !ok || binding == "" {
		deps.MetricInc(deps.Metrics.ValidationFailure)
		deps.EmitAudit(ctx, event, false, "", "", "", deps.Errors.InvalidCode, reasonMeta("invalid_code"))
		return nil, deps.Errors.InvalidCode
	}

	digest, err := deps.HashPassword(password)
	if err != nil {
		mapped := internalError(deps, err)
		deps.EmitAudit(ctx, event, false, "", binding, "", mapped, reasonMeta("hash_failed"))
		return nil, mapped
	}

	cred, err := redeem(ctx, deps, credential.Matcher{Binding: binding, Code: code})
	if err != nil {
		deps.EmitAudit(ctx, event, false, "", binding, "", err, reasonMeta("credential"))
		return nil, err
	}

	ident, err := deps.FindByEmail(ctx, cred.Email)
	if err != nil {
		mapped := mapIdentityError(deps, err)
		deps.EmitAudit(ctx, event, false, "", cred.Binding, cred.Purpose.String(), mapped, reasonMeta("identity_lookup"))
		return nil, mapped
	}

	if err := deps.UpdatePasswordAndActivate(ctx, ident.ID, digest); err != nil {
		mapped := internalError(deps, err)
		deps.Logger.ErrorContext(ctx, "activate identity failed", "user_id", ident.ID, "error", err)
		deps.EmitAudit(ctx, event, false, ident.ID, cred.Binding, cred.Purpose.String(), mapped, reasonMeta("update_failed"))
		return nil, mapped
	}
	ident.PasswordDigest = digest
	ident.Active = true

	deps.MetricInc(deps.Metrics.PasswordSetup)
	return finishCodeLogin(ctx, deps, event, cred, ident)
}
