package codeAuth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/codeAuth/credential"
	internalaudit "github.com/MrEthical07/codeAuth/internal/audit"
	"github.com/MrEthical07/codeAuth/internal/limiters"
	"github.com/MrEthical07/codeAuth/internal/rate"
	"github.com/MrEthical07/codeAuth/internal/stores"
	"github.com/MrEthical07/codeAuth/jwt"
	"github.com/MrEthical07/codeAuth/notify"
	"github.com/MrEthical07/codeAuth/password"
	"github.com/redis/go-redis/v9"
)

// Builder collects Engine dependencies. A Builder can build one Engine.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	credentialStore credential.Store
	identities      IdentityStore
	notifier        notify.Notifier
	auditSink       AuditSink
	logger          *slog.Logger
	now             func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the credential store and the
// throttles. It is required unless WithCredentialStore is used and both
// throttles are disabled.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore overrides the Redis credential store, for example with
// the PostgreSQL store or credential.MemoryStore.
func (b *Builder) WithCredentialStore(store credential.Store) *Builder {
	b.credentialStore = store
	return b
}

func (b *Builder) WithIdentityStore(store IdentityStore) *Builder {
	b.identities = store
	return b
}

// WithNotifier sets the code delivery channel. Without one, codes are issued
// but never delivered.
func (b *Builder) WithNotifier(n notify.Notifier) *Builder {
	b.notifier = n
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for issuance, expiry and token timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.identities == nil {
		return nil, errors.New("identity store required")
	}
	if b.redis == nil {
		if b.credentialStore == nil {
			return nil, errors.New("redis client or credential store required")
		}
		if cfg.Throttle.Issue.Enabled || cfg.Throttle.Login.Enabled {
			return nil, errors.New("throttle requires redis client")
		}
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// -------- CREDENTIALS --------
	store := b.credentialStore
	if store == nil {
		store = stores.NewCredentialStore(b.redis, cfg.Credential.RedisPrefix)
	}
	binder, err := credential.NewHMACBinder(cfg.Credential.BindingKey)
	if err != nil {
		return nil, err
	}
	manager, err := credential.NewManager(store, binder, credential.WithClock(now))
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      cloneConfig(cfg),
		credentials: manager,
		identities:  b.identities,
		notifier:    b.notifier,
		logger:      logger,
		now:         now,
	}

	// -------- THROTTLES --------
	if cfg.Throttle.Issue.Enabled {
		engine.issueLimiter = limiters.NewIssuanceLimiter(b.redis, limiters.IssuanceConfig{
			Prefix:           cfg.Credential.RedisPrefix,
			EnableIPThrottle: cfg.Throttle.Issue.EnableIPThrottle,
			MaxRequests:      cfg.Throttle.Issue.MaxRequests,
			Window:           cfg.Throttle.Issue.Window,
		})
	}
	if cfg.Throttle.Login.Enabled {
		engine.loginLimiter = rate.New(b.redis, rate.Config{
			Prefix:           cfg.Credential.RedisPrefix,
			EnableIPThrottle: cfg.Throttle.Login.EnableIPThrottle,
			MaxLoginAttempts: cfg.Throttle.Login.MaxAttempts,
			LoginCooldown:    cfg.Throttle.Login.Cooldown,
		})
	}

	// -------- PASSWORDS --------
	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph
	engine.policy = password.Policy{
		MinLength:     cfg.Password.MinLength,
		MaxLength:     cfg.Password.MaxLength,
		RequireUpper:  cfg.Password.RequireUpper,
		RequireLower:  cfg.Password.RequireLower,
		RequireDigit:  cfg.Password.RequireDigit,
		RequireSymbol: cfg.Password.RequireSymbol,
	}

	// -------- TOKENS --------
	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.Token.TTL,
		SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
		Audience:      cfg.Token.Audience,
		Leeway:        cfg.Token.Leeway,
		KeyID:         cfg.Token.KeyID,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	// -------- OBSERVABILITY --------
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
