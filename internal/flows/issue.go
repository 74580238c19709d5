package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/codeAuth/credential"
	"github.com/MrEthical07/codeAuth/notify"
)

// issueRequest is the validated input shared by every issuance flow.
type issueRequest struct {
	event   string
	purpose credential.Purpose
	email   string
	binding string
}

// beginIssue validates the email and applies the issuance limiter. The
// limiter runs before any identity lookup so a throttled response says
// nothing about whether the account exists.
func beginIssue(ctx context.Context, deps Deps, event string, purpose credential.Purpose, rawEmail string) (issueRequest, error) {
	req := issueRequest{event: event, purpose: purpose}

	email, ok := parseEmail(rawEmail)
	if !ok {
		deps.MetricInc(deps.Metrics.ValidationFailure)
		deps.EmitAudit(ctx, event, false, "", "", purpose.String(), deps.Errors.InvalidEmail, reasonMeta("invalid_email"))
		return req, deps.Errors.InvalidEmail
	}
	req.email = email
	req.binding = deps.Bind(email)

	if deps.CheckIssueLimiter != nil {
		if err := deps.CheckIssueLimiter(ctx, purpose.String(), req.binding); err != nil {
			if errors.Is(err, deps.Errors.RateLimited) {
				deps.MetricInc(deps.Metrics.IssueRateLimited)
				deps.EmitAudit(ctx, event, false, "", req.binding, purpose.String(), err, reasonMeta("rate_limited"))
				return req, err
			}
			mapped := internalError(deps, err)
			deps.EmitAudit(ctx, event, false, "", req.binding, purpose.String(), mapped, reasonMeta("limiter_unavailable"))
			return req, mapped
		}
	}

	return req, nil
}

func rejectIdentity(ctx context.Context, deps Deps, req issueRequest, userID string, err error, reason string) error {
	deps.MetricInc(deps.Metrics.CodeIssueFailure)
	deps.EmitAudit(ctx, req.event, false, userID, req.binding, req.purpose.String(), err, reasonMeta(reason))
	return err
}

// issueCode stores a fresh credential for req and notifies ident.
func issueCode(ctx context.Context, deps Deps, req issueRequest, ident Identity) error {
	cred, err := deps.Issue(ctx, req.email, req.purpose, deps.CredentialTTL)
	if err != nil {
		deps.MetricInc(deps.Metrics.CodeIssueFailure)
		mapped := internalError(deps, err)
		deps.Logger.ErrorContext(ctx, "issue credential failed",
			"purpose", req.purpose.String(),
			"binding", req.binding,
			"error", err,
		)
		deps.EmitAudit(ctx, req.event, false, ident.ID, req.binding, req.purpose.String(), mapped, reasonMeta("store_failed"))
		return mapped
	}

	deps.MetricInc(deps.Metrics.CodeIssued)
	sendNotification(ctx, deps, cred, ident)
	deps.EmitAudit(ctx, req.event, true, ident.ID, cred.Binding, req.purpose.String(), nil, nil)
	return nil
}

// sendNotification delivers cred synchronously. Failure is logged and
// counted; it never changes the flow result.
func sendNotification(ctx context.Context, deps Deps, cred credential.Credential, ident Identity) {
	if deps.Notify == nil {
		return
	}

	n := notify.Notification{
		Purpose: cred.Purpose,
		Code:    cred.Code,
		Binding: cred.Binding,
		Recipient: notify.Recipient{
			Email: cred.Email,
			Name:  displayName(deps, ident),
		},
		Subject: deps.Subjects[cred.Purpose],
	}
	if err := deps.Notify(ctx, n); err != nil {
		deps.MetricInc(deps.Metrics.NotifyFailure)
		deps.Logger.WarnContext(ctx, "notify failed",
			"purpose", cred.Purpose.String(),
			"binding", cred.Binding,
			"error", err,
		)
	}
}
