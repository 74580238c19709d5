package codeAuth

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/codeAuth/credential"
	internalaudit "github.com/MrEthical07/codeAuth/internal/audit"
	internalflows "github.com/MrEthical07/codeAuth/internal/flows"
	"github.com/MrEthical07/codeAuth/internal/limiters"
	"github.com/MrEthical07/codeAuth/internal/rate"
	"github.com/MrEthical07/codeAuth/jwt"
	"github.com/MrEthical07/codeAuth/notify"
	"github.com/MrEthical07/codeAuth/password"
)

// Engine runs the authentication flows. Build one with [New] and
// [Builder.Build]; it is safe for concurrent use.
type Engine struct {
	config       Config
	credentials  *credential.Manager
	identities   IdentityStore
	notifier     notify.Notifier
	passwordHash *password.Argon2
	policy       password.Policy
	jwtManager   *jwt.Manager
	issueLimiter *limiters.IssuanceLimiter
	loginLimiter *rate.Limiter
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       *slog.Logger
	now          func() time.Time
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events dropped because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

// Bind returns the binding the engine derives for email. Magic links and
// reset links carry it alongside the code.
func (e *Engine) Bind(email string) string {
	if e == nil || e.credentials == nil {
		return ""
	}
	return e.credentials.Bind(email)
}

// Login verifies a password and returns a session token. Unknown, inactive
// and lowest-role identities, missing passwords and wrong passwords all
// return ErrAuthFailed.
func (e *Engine) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	res, err := internalflows.RunLogin(ctx, email, password, e.flowDeps())
	return toAuthResult(res), err
}

// Authenticate verifies token and returns the identity it names. The
// identity is reloaded so a deactivated account fails with ErrTokenInvalid
// before its token expires.
func (e *Engine) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	ident, err := internalflows.RunAuthenticate(ctx, token, e.flowDeps())
	if err != nil {
		return nil, err
	}
	out := fromFlowIdentity(*ident)
	return &out, nil
}
