package codeAuth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/codeAuth/credential"
	"github.com/MrEthical07/codeAuth/password"
)

// Config is the complete Engine configuration. Start from [DefaultConfig]
// and override fields, or load it with [LoadConfig].
type Config struct {
	Token      TokenConfig      `koanf:"token"`
	Credential CredentialConfig `koanf:"credential"`
	Password   PasswordConfig   `koanf:"password"`
	Roles      RolesConfig      `koanf:"roles"`
	Notify     NotifyConfig     `koanf:"notify"`
	Throttle   ThrottleConfig   `koanf:"throttle"`
	Audit      AuditConfig      `koanf:"audit"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls session token signing.
//
// Password logins use TTL. Code logins (login by code, magic link, setup
// password) use CodeLoginTTL and stamp createdAt as now + CreatedAtShift.
type TokenConfig struct {
	TTL            time.Duration `koanf:"ttl"`
	CodeLoginTTL   time.Duration `koanf:"code_login_ttl"`
	CreatedAtShift time.Duration `koanf:"created_at_shift"`
	SigningMethod  string        `koanf:"signing_method"` // "ed25519" (default) or "hs256"
	Issuer         string        `koanf:"issuer"`
	Audience       string        `koanf:"audience"`
	Leeway         time.Duration `koanf:"leeway"`
	KeyID          string        `koanf:"key_id"`

	PrivateKey []byte `koanf:"-"`
	PublicKey  []byte `koanf:"-"`
	// Key files are read by LoadConfig into PrivateKey and PublicKey.
	PrivateKeyFile string `koanf:"private_key_file"`
	PublicKeyFile  string `koanf:"public_key_file"`
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig controls ephemeral credential issuance.
type CredentialConfig struct {
	TTL         time.Duration `koanf:"ttl"`
	RedisPrefix string        `koanf:"redis_prefix"`

	// BindingKey keys the HMAC that derives a binding from an email.
	// Rotating it invalidates every outstanding credential.
	BindingKey     []byte `koanf:"-"`
	BindingKeyFile string `koanf:"binding_key_file"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters and the complexity policy.
type PasswordConfig struct {
	Memory      uint32 `koanf:"memory"` // in KB
	Time        uint32 `koanf:"time"`
	Parallelism uint8  `koanf:"parallelism"`
	SaltLength  uint32 `koanf:"salt_length"`
	KeyLength   uint32 `koanf:"key_length"`

	MinLength     int  `koanf:"min_length"`
	MaxLength     int  `koanf:"max_length"`
	RequireUpper  bool `koanf:"require_upper"`
	RequireLower  bool `koanf:"require_lower"`
	RequireDigit  bool `koanf:"require_digit"`
	RequireSymbol bool `koanf:"require_symbol"`
	// PolicyOnSetup applies the policy to SetupPassword too. Off by default:
	// setup only requires a non-empty password matching its confirmation.
	PolicyOnSetup bool `koanf:"policy_on_setup"`
}

// RolesConfig names the lowest-privilege role. Identities with that role
// cannot log in with a password or request a reset.
type RolesConfig struct {
	Lowest Role `koanf:"lowest"`
}

// NotifyConfig controls notification content. Subjects is keyed by purpose
// name (requestLogin, resendCode, requestToResetPassword, setupPassword).
type NotifyConfig struct {
	DefaultName string            `koanf:"default_name"`
	Subjects    map[string]string `koanf:"subjects"`
}

/*
====================================
THROTTLE CONFIG
====================================
*/

// ThrottleConfig groups the Redis fixed-window throttles. Both are off by
// default and require a Redis client.
type ThrottleConfig struct {
	Issue IssueThrottleConfig `koanf:"issue"`
	Login LoginThrottleConfig `koanf:"login"`
}

// IssueThrottleConfig caps code requests per (flow, binding).
type IssueThrottleConfig struct {
	Enabled          bool          `koanf:"enabled"`
	EnableIPThrottle bool          `koanf:"enable_ip_throttle"`
	MaxRequests      int           `koanf:"max_requests"`
	Window           time.Duration `koanf:"window"`
}

// LoginThrottleConfig caps failed password logins per email.
type LoginThrottleConfig struct {
	Enabled          bool          `koanf:"enabled"`
	EnableIPThrottle bool          `koanf:"enable_ip_throttle"`
	MaxAttempts      int           `koanf:"max_attempts"`
	Cooldown         time.Duration `koanf:"cooldown"`
}

type AuditConfig struct {
	Enabled    bool `koanf:"enabled"`
	BufferSize int  `koanf:"buffer_size"`
	DropIfFull bool `koanf:"drop_if_full"`
}

type MetricsConfig struct {
	Enabled                 bool `koanf:"enabled"`
	EnableLatencyHistograms bool `koanf:"enable_latency_histograms"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. Keys are not set; the
// caller must supply Token keys and Credential.BindingKey.
func DefaultConfig() Config {
	hash := password.DefaultConfig()
	policy := password.DefaultPolicy()

	return Config{
		Token: TokenConfig{
			TTL:            24 * time.Hour,
			CodeLoginTTL:   24 * time.Hour,
			CreatedAtShift: 24 * time.Hour,
			SigningMethod:  "ed25519",
		},
		Credential: CredentialConfig{
			TTL:         24 * time.Hour,
			RedisPrefix: "acr",
		},
		Password: PasswordConfig{
			Memory:        hash.Memory,
			Time:          hash.Time,
			Parallelism:   hash.Parallelism,
			SaltLength:    hash.SaltLength,
			KeyLength:     hash.KeyLength,
			MinLength:     policy.MinLength,
			MaxLength:     policy.MaxLength,
			RequireUpper:  policy.RequireUpper,
			RequireLower:  policy.RequireLower,
			RequireDigit:  policy.RequireDigit,
			RequireSymbol: policy.RequireSymbol,
		},
		Roles: RolesConfig{
			Lowest: RoleUser,
		},
		Notify: NotifyConfig{
			DefaultName: "User",
			Subjects: map[string]string{
				credential.PurposeRequestLogin.String():         "Your Login Code",
				credential.PurposeResendCode.String():           "Your Login Code",
				credential.PurposeRequestResetPassword.String(): "Reset Your Password",
				credential.PurposeSetupPassword.String():        "Set Up Your Password",
			},
		},
		Throttle: ThrottleConfig{
			Issue: IssueThrottleConfig{
				MaxRequests: 5,
				Window:      15 * time.Minute,
			},
			Login: LoginThrottleConfig{
				MaxAttempts: 5,
				Cooldown:    15 * time.Minute,
			},
		},
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	out.Credential.BindingKey = cloneBytes(cfg.Credential.BindingKey)
	if cfg.Notify.Subjects != nil {
		out.Notify.Subjects = make(map[string]string, len(cfg.Notify.Subjects))
		for k, v := range cfg.Notify.Subjects {
			out.Notify.Subjects[k] = v
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Token
	if c.Token.TTL <= 0 {
		return errors.New("Token TTL must be > 0")
	}
	if c.Token.CodeLoginTTL <= 0 {
		return errors.New("Token CodeLoginTTL must be > 0")
	}
	if c.Token.CreatedAtShift < 0 {
		return errors.New("Token CreatedAtShift must be >= 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}
	switch c.Token.SigningMethod {
	case "ed25519":
		if len(c.Token.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.Token.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	case "hs256":
		if len(c.Token.PrivateKey) < 32 {
			return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
		}
	default:
		return errors.New("unsupported Token signing method")
	}

	// Credential
	if c.Credential.TTL <= 0 {
		return errors.New("Credential TTL must be > 0")
	}
	if len(c.Credential.BindingKey) < 16 {
		return errors.New("Credential BindingKey must be at least 16 bytes")
	}
	if c.Credential.RedisPrefix == "" {
		return errors.New("Credential RedisPrefix must not be empty")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if c.Password.MaxLength < c.Password.MinLength {
		return errors.New("Password MaxLength must be >= MinLength")
	}

	// Roles
	if c.Roles.Lowest < RoleAdmin {
		return fmt.Errorf("Roles Lowest must be >= %d", RoleAdmin)
	}

	// Notify
	for name := range c.Notify.Subjects {
		if _, err := credential.ParsePurpose(name); err != nil {
			return fmt.Errorf("Notify Subjects: %w", err)
		}
	}

	// Throttle
	if c.Throttle.Issue.Enabled {
		if c.Throttle.Issue.MaxRequests <= 0 {
			return errors.New("Throttle Issue MaxRequests must be > 0")
		}
		if c.Throttle.Issue.Window <= 0 {
			return errors.New("Throttle Issue Window must be > 0")
		}
	}
	if c.Throttle.Login.Enabled {
		if c.Throttle.Login.MaxAttempts <= 0 {
			return errors.New("Throttle Login MaxAttempts must be > 0")
		}
		if c.Throttle.Login.Cooldown <= 0 {
			return errors.New("Throttle Login Cooldown must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
