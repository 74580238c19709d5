package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/codeAuth/credential"
)

func issueReady(deps Deps) bool {
	return deps.Bind != nil && deps.Issue != nil && deps.FindActiveByEmail != nil
}

func redeemReady(deps Deps) bool {
	return deps.Redeem != nil && deps.FindActiveByEmail != nil && deps.IssueToken != nil
}

// RunRequestLogin issues a login code to an active identity.
func RunRequestLogin(ctx context.Context, email string, deps Deps) error {
	normalizeDeps(&deps)
	if !issueReady(deps) {
		return deps.Errors.EngineNotReady
	}

	req, err := beginIssue(ctx, deps, deps.Events.RequestLogin, credential.PurposeRequestLogin, email)
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

	return issueCode(ctx, deps, req, ident)
}

// RunResendCode drops every outstanding credential for the email and issues
// a fresh ResendCode credential.
func RunResendCode(ctx context.Context, email string, deps Deps) error {
	normalizeDeps(&deps)
	if !issueReady(deps) || deps.PurgeAll == nil {
		return deps.Errors.EngineNotReady
	}

	req, err := beginIssue(ctx, deps, deps.Events.ResendCode, credential.PurposeResendCode, email)
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

	if err := deps.PurgeAll(ctx, req.email); err != nil {
		mapped := internalError(deps, err)
		deps.MetricInc(deps.Metrics.CodeIssueFailure)
		deps.EmitAudit(ctx, req.event, false, ident.ID, req.binding, req.purpose.String(), mapped, reasonMeta("purge_failed"))
		return mapped
	}

	return issueCode(ctx, deps, req, ident)
}

// RunLoginByCode redeems a code issued to email and returns a session token.
func RunLoginByCode(ctx context.Context, email, code string, deps Deps) (*Result, error) {
	normalizeDeps(&deps)
	if !redeemReady(deps) {
		return nil, deps.Errors.EngineNotReady
	}
	event := deps.Events.LoginByCode

	addr, ok := parseEmail(email)
	if !ok {
		deps.MetricInc(deps.Metrics.ValidationFailure)
		deps.EmitAudit(ctx, event, false, "", "", "", deps.Errors.InvalidEmail, reasonMeta("invalid_email"))
		return nil, deps.Errors.InvalidEmail
	}
	code, ok = checkCode(code)
	if !ok {
		deps.MetricInc(deps.Metrics.ValidationFailure)
		deps.EmitAudit(ctx, event, false, "", "", "", deps.Errors.InvalidCode, reasonMeta("invalid_code"))
		return nil, deps.Errors.InvalidCode
	}

	ident, err := deps.FindActiveByEmail(ctx, addr)
	if err == nil && !ident.Active {
		err = deps.Errors.IdentityNotFound
	}
	if err != nil {
		mapped := mapIdentityError(deps, err)
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, event, false, "", "", "", mapped, reasonMeta("identity_lookup"))
		return nil, mapped
	}

	cred, err := redeem(ctx, deps, credential.Matcher{Email: addr, Code: code})
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, event, false, ident.ID, "", "", err, reasonMeta("credential"))
		return nil, err
	}

	return finishCodeLogin(ctx, deps, event, cred, ident)
}

// RunMagicLinkLogin redeems a (binding, code) pair from an emailed link and
// returns a session token for the identity the code was issued to.
func RunMagicLinkLogin(ctx context.Context, binding, code string, deps Deps) (*Result, error) {
	normalizeDeps(&deps)
	if !redeemReady(deps) {
		return nil, deps.Errors.EngineNotReady
	}
	event := deps.Events.MagicLinkLogin

	code, ok := checkCode(code)
	if !ok || binding == "" {
		deps.MetricInc(deps.Metrics.ValidationFailure)
		deps.EmitAudit(ctx, event, false, "", "", "", deps.Errors.InvalidCode, reasonMeta("invalid_code"))
		return nil, deps.Errors.InvalidCode
	}

	cred, err := redeem(ctx, deps, credential.Matcher{Binding: binding, Code: code})
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, event, false, "", binding, "", err, reasonMeta("credential"))
		return nil, err
	}

	ident, err := deps.FindActiveByEmail(ctx, cred.Email)
	if err == nil && !ident.Active {
		err = deps.Errors.IdentityNotFound
	}
	if err != nil {
		mapped := mapIdentityError(deps, err)
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, event, false, "", cred.Binding, cred.Purpose.String(), mapped, reasonMeta("identity_lookup"))
		return nil, mapped
	}

	return finishCodeLogin(ctx, deps, event, cred, ident)
}

// redeem consumes a credential and records latency and outcome.
func redeem(ctx context.Context, deps Deps, m credential.Matcher) (credential.Credential, error) {
	start := deps.Now()
	cred, err := deps.Redeem(ctx, m, start)
	deps.MetricObserve(deps.Metrics.RedeemLatency, deps.Now().Sub(start))
	if err != nil {
		deps.MetricInc(deps.Metrics.CodeRedeemFailure)
		mapped := mapRedeemError(deps, err)
		if !isContextError(err) && !errors.Is(mapped, deps.Errors.AuthFailed) {
			deps.Logger.ErrorContext(ctx, "redeem credential failed", "error", err)
		}
		return credential.Credential{}, mapped
	}
	deps.MetricInc(deps.Metrics.CodeRedeemed)
	return cred, nil
}

func finishCodeLogin(ctx context.Context, deps Deps, event string, cred credential.Credential, ident Identity) (*Result, error) {
	now := deps.Now()
	token, err := deps.IssueToken(ident, now.Add(deps.CreatedAtShift), deps.CodeTokenTTL)
	if err != nil {
		mapped := internalError(deps, err)
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.Logger.ErrorContext(ctx, "issue token failed", "user_id", ident.ID, "error", err)
		deps.EmitAudit(ctx, event, false, ident.ID, cred.Binding, cred.Purpose.String(), mapped, reasonMeta("token"))
		return nil, mapped
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, event, true, ident.ID, cred.Binding, cred.Purpose.String(), nil, nil)
	return &Result{Token: token, Identity: publicIdentity(ident)}, nil
}
