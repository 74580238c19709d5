package codeAuth

import (
	"context"
	"errors"
)

const (
	auditEventLogin                = "login"
	auditEventRequestLogin         = "request_login"
	auditEventResendCode           = "resend_code"
	auditEventLoginByCode          = "login_by_code"
	auditEventMagicLinkLogin       = "magic_link_login"
	auditEventRequestResetPassword = "request_reset_password"
	auditEventResetPassword        = "reset_password"
	auditEventRequestSetupPassword = "request_setup_password"
	auditEventSetupPassword        = "setup_password"
	auditEventAuthenticate         = "authenticate"
)

// AuditErrorCode is the stable error label written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrAuthFailed       AuditErrorCode = "auth_failed"
	auditErrInvalidEmail     AuditErrorCode = "invalid_email"
	auditErrInvalidCode      AuditErrorCode = "invalid_code"
	auditErrPasswordPolicy   AuditErrorCode = "password_policy"
	auditErrPasswordMismatch AuditErrorCode = "password_mismatch"
	auditErrRateLimited      AuditErrorCode = "rate_limited"
	auditErrInvalidToken     AuditErrorCode = "invalid_token"
	auditErrCanceled         AuditErrorCode = "canceled"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	binding string,
	purpose string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Binding:   binding,
		Purpose:   purpose,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrAuthFailed):
		return auditErrAuthFailed
	case errors.Is(err, ErrInvalidEmail):
		return auditErrInvalidEmail
	case errors.Is(err, ErrInvalidCode):
		return auditErrInvalidCode
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrPasswordMismatch):
		return auditErrPasswordMismatch
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	default:
		return auditErrInternal
	}
}
