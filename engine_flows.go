package codeAuth

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/codeAuth/credential"
	internalflows "github.com/MrEthical07/codeAuth/internal/flows"
	"github.com/MrEthical07/codeAuth/internal/limiters"
	"github.com/MrEthical07/codeAuth/internal/rate"
	"github.com/MrEthical07/codeAuth/jwt"
)

func (e *Engine) flowDeps() internalflows.Deps {
	cfg := e.config

	deps := internalflows.Deps{
		CredentialTTL:       cfg.Credential.TTL,
		TokenTTL:            cfg.Token.TTL,
		CodeTokenTTL:        cfg.Token.CodeLoginTTL,
		CreatedAtShift:      cfg.Token.CreatedAtShift,
		LowestRole:          int(cfg.Roles.Lowest),
		DefaultName:         cfg.Notify.DefaultName,
		Subjects:            subjectsByPurpose(cfg.Notify.Subjects),
		PolicyOnSetup:       cfg.Password.PolicyOnSetup,
		Now:                 e.now,
		ClientIPFromContext: clientIPFromContext,
		Logger:              e.logger,
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		MetricObserve: func(id int, d time.Duration) {
			e.metricObserve(MetricID(id), d)
		},
		EmitAudit: e.emitAudit,
		Metrics: internalflows.Metrics{
			CodeIssued:        int(MetricCodeIssued),
			CodeIssueFailure:  int(MetricCodeIssueFailure),
			CodeRedeemed:      int(MetricCodeRedeemed),
			CodeRedeemFailure: int(MetricCodeRedeemFailure),
			LoginSuccess:      int(MetricLoginSuccess),
			LoginFailure:      int(MetricLoginFailure),
			LoginRateLimited:  int(MetricLoginRateLimited),
			PasswordReset:     int(MetricPasswordReset),
			PasswordSetup:     int(MetricPasswordSetup),
			NotifyFailure:     int(MetricNotifyFailure),
			IssueRateLimited:  int(MetricIssueRateLimited),
			ValidationFailure: int(MetricValidationFailure),
			RedeemLatency:     int(MetricRedeemLatency),
		},
		Events: internalflows.Events{
			Login:                auditEventLogin,
			RequestLogin:         auditEventRequestLogin,
			ResendCode:           auditEventResendCode,
			LoginByCode:          auditEventLoginByCode,
			MagicLinkLogin:       auditEventMagicLinkLogin,
			RequestResetPassword: auditEventRequestResetPassword,
			ResetPassword:        auditEventResetPassword,
			RequestSetupPassword: auditEventRequestSetupPassword,
			SetupPassword:        auditEventSetupPassword,
			Authenticate:         auditEventAuthenticate,
		},
		Errors: internalflows.Errors{
			EngineNotReady:   ErrEngineNotReady,
			InvalidEmail:     ErrInvalidEmail,
			InvalidCode:      ErrInvalidCode,
			PasswordPolicy:   ErrPasswordPolicy,
			PasswordMismatch: ErrPasswordMismatch,
			AuthFailed:       ErrAuthFailed,
			RateLimited:      ErrRateLimited,
			TokenInvalid:     ErrTokenInvalid,
			Internal:         ErrInternal,
			IdentityNotFound: ErrIdentityNotFound,
		},
	}

	if e.credentials != nil {
		deps.Bind = e.credentials.Bind
		deps.Issue = e.credentials.Issue
		deps.Redeem = e.credentials.Redeem
		deps.PurgeAll = e.credentials.PurgeAll
	}

	if e.identities != nil {
		deps.FindActiveByEmail = e.findIdentity(e.identities.FindActiveByEmail)
		deps.FindByEmail = e.findIdentity(e.identities.FindByEmail)
		deps.FindByID = e.findIdentity(e.identities.FindByID)
		deps.UpdatePassword = e.identities.UpdatePassword
		deps.UpdatePasswordAndActivate = e.identities.UpdatePasswordAndActivate
	}

	if e.passwordHash != nil {
		deps.ValidatePassword = e.policy.Validate
		deps.HashPassword = e.passwordHash.Hash
		deps.VerifyPassword = e.passwordHash.Verify
	}

	if e.jwtManager != nil {
		deps.IssueToken = e.issueToken
		deps.ParseToken = e.parseToken
	}

	if e.notifier != nil {
		deps.Notify = e.notifier.SendCode
	}

	if e.issueLimiter != nil {
		deps.CheckIssueLimiter = e.checkIssueLimiter
	}
	if e.loginLimiter != nil {
		deps.CheckLoginLimiter = e.checkLoginLimiter
		deps.RecordLoginFailure = e.recordLoginFailure
		deps.ResetLoginLimiter = e.resetLoginLimiter
	}

	return deps
}

func (e *Engine) findIdentity(find func(context.Context, string) (Identity, error)) func(context.Context, string) (internalflows.Identity, error) {
	return func(ctx context.Context, key string) (internalflows.Identity, error) {
		ident, err := find(ctx, key)
		if err != nil {
			return internalflows.Identity{}, err
		}
		return toFlowIdentity(ident), nil
	}
}

func (e *Engine) issueToken(ident internalflows.Identity, createdAt time.Time, ttl time.Duration) (string, error) {
	return e.jwtManager.Issue(jwt.Claims{
		UserID:    ident.ID,
		Email:     ident.Email,
		Role:      ident.Role,
		CreatedAt: createdAt,
	}, ttl)
}

func (e *Engine) parseToken(token string) (string, error) {
	claims, err := e.jwtManager.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

func (e *Engine) checkIssueLimiter(ctx context.Context, flow, binding string) error {
	err := e.issueLimiter.Check(ctx, flow, binding, clientIPFromContext(ctx))
	if errors.Is(err, limiters.ErrIssueRateLimited) {
		return ErrRateLimited
	}
	return err
}

func (e *Engine) checkLoginLimiter(ctx context.Context, email string) error {
	err := e.loginLimiter.CheckLogin(ctx, email, clientIPFromContext(ctx))
	if errors.Is(err, rate.ErrRateLimited) {
		return ErrRateLimited
	}
	return err
}

func (e *Engine) recordLoginFailure(ctx context.Context, email string) {
	if err := e.loginLimiter.IncrementLogin(ctx, email, clientIPFromContext(ctx)); err != nil {
		e.logger.WarnContext(ctx, "record login failure", "error", err)
	}
}

func (e *Engine) resetLoginLimiter(ctx context.Context, email string) {
	if err := e.loginLimiter.ResetLogin(ctx, email); err != nil {
		e.logger.WarnContext(ctx, "reset login limiter", "error", err)
	}
}

func subjectsByPurpose(byName map[string]string) map[credential.Purpose]string {
	out := make(map[credential.Purpose]string, len(byName))
	for name, subject := range byName {
		if p, err := credential.ParsePurpose(name); err == nil {
			out[p] = subject
		}
	}
	return out
}

func toFlowIdentity(ident Identity) internalflows.Identity {
	return internalflows.Identity{
		ID:             ident.ID,
		Email:          ident.Email,
		PasswordDigest: ident.PasswordDigest,
		Active:         ident.Active,
		Role:           int(ident.Role),
		FirstName:      ident.FirstName,
		LastName:       ident.LastName,
	}
}

func fromFlowIdentity(ident internalflows.Identity) Identity {
	return Identity{
		ID:             ident.ID,
		Email:          ident.Email,
		PasswordDigest: ident.PasswordDigest,
		Active:         ident.Active,
		Role:           Role(ident.Role),
		FirstName:      ident.FirstName,
		LastName:       ident.LastName,
	}
}

func toAuthResult(res *internalflows.Result) *AuthResult {
	if res == nil {
		return nil
	}
	return &AuthResult{
		Token:    res.Token,
		Identity: fromFlowIdentity(res.Identity),
	}
}
