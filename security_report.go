package codeAuth

import "time"

// SecurityReport summarizes the security-relevant settings an Engine was
// built with. It carries no key material.
type SecurityReport struct {
	SigningAlgorithm    string
	TokenTTL            time.Duration
	CodeLoginTTL        time.Duration
	CredentialTTL       time.Duration
	BindingKeyBytes     int
	Argon2              PasswordConfigReport
	Policy              PasswordPolicyReport
	LowestRole          Role
	IssueThrottleActive bool
	LoginThrottleActive bool
	IPThrottleActive    bool
	AuditEnabled        bool
	MetricsEnabled      bool
}

type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

type PasswordPolicyReport struct {
	MinLength     int
	MaxLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
	PolicyOnSetup bool
}

// SecurityReport returns the effective security posture of e.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	cfg := e.config

	issue := cfg.Throttle.Issue.Enabled && e.issueLimiter != nil
	login := cfg.Throttle.Login.Enabled && e.loginLimiter != nil

	return SecurityReport{
		SigningAlgorithm: cfg.Token.SigningMethod,
		TokenTTL:         cfg.Token.TTL,
		CodeLoginTTL:     cfg.Token.CodeLoginTTL,
		CredentialTTL:    cfg.Credential.TTL,
		BindingKeyBytes:  len(cfg.Credential.BindingKey),
		Argon2: PasswordConfigReport{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		},
		Policy: PasswordPolicyReport{
			MinLength:     cfg.Password.MinLength,
			MaxLength:     cfg.Password.MaxLength,
			RequireUpper:  cfg.Password.RequireUpper,
			RequireLower:  cfg.Password.RequireLower,
			RequireDigit:  cfg.Password.RequireDigit,
			RequireSymbol: cfg.Password.RequireSymbol,
			PolicyOnSetup: cfg.Password.PolicyOnSetup,
		},
		LowestRole:          cfg.Roles.Lowest,
		IssueThrottleActive: issue,
		LoginThrottleActive: login,
		IPThrottleActive: (issue && cfg.Throttle.Issue.EnableIPThrottle) ||
			(login && cfg.Throttle.Login.EnableIPThrottle),
		AuditEnabled:   e.audit != nil,
		MetricsEnabled: e.metrics != nil && e.metrics.Enabled(),
	}
}
