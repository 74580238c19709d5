package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/codeAuth/internal"
	"github.com/google/uuid"
)

const issueAttempts = 3

// Manager issues, redeems and purges credentials on top of a Store.
//
// Manager is safe for concurrent use when its Store is.
type Manager struct {
	store  Store
	binder Binder
	codes  CodeGenerator
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithCodeGenerator overrides the default RandomCodes generator.
func WithCodeGenerator(g CodeGenerator) Option {
	return func(m *Manager) {
		if g != nil {
			m.codes = g
		}
	}
}

// WithClock overrides time.Now for issuance timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager builds a Manager. store and binder are required.
func NewManager(store Store, binder Binder, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("credential store is nil")
	}
	if binder == nil {
		return nil, errors.New("credential binder is nil")
	}
	m := &Manager{
		store:  store,
		binder: binder,
		codes:  RandomCodes{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Bind returns the binding of email.
func (m *Manager) Bind(email string) string {
	return m.binder.Bind(email)
}

// Issue replaces any credential for (email, purpose) with a fresh one that
// expires ttl from now.
func (m *Manager) Issue(ctx context.Context, email string, purpose Purpose, ttl time.Duration) (Credential, error) {
	if !purpose.Valid() {
		return Credential{}, fmt.Errorf("issue: invalid purpose %d", purpose)
	}
	if ttl <= 0 {
		return Credential{}, errors.New("issue: ttl must be > 0")
	}

	email = internal.NormalizeEmail(email)
	binding := m.binder.Bind(email)

	var lastErr error
	for i := 0; i < issueAttempts; i++ {
		code, err := m.codes.Generate(CodeLength)
		if err != nil {
			return Credential{}, fmt.Errorf("issue: generate code: %w", err)
		}
		if len(code) != CodeLength {
			return Credential{}, fmt.Errorf("issue: generator returned %d chars", len(code))
		}

		// Postgres keeps microseconds; truncate so every backend round-trips
		// ExpiresAt exactly.
		now := m.now().Truncate(time.Microsecond)
		c := Credential{
			ID:        uuid.NewString(),
			Binding:   binding,
			Email:     email,
			Code:      code,
			Purpose:   purpose,
			IssuedAt:  now,
			ExpiresAt: now.Add(ttl),
		}

		err = m.store.Replace(ctx, c)
		if errors.Is(err, ErrCodeCollision) {
			lastErr = err
			continue
		}
		if err != nil {
			return Credential{}, err
		}
		return c, nil
	}

	return Credential{}, fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

// Redeem consumes the credential selected by match. When match.Binding is
// empty it is derived from match.Email. Empty or oversize codes return
// ErrInvalidCode without reaching the Store.
func (m *Manager) Redeem(ctx context.Context, match Matcher, now time.Time) (Credential, error) {
	if len(match.Code) > CodeLength || strings.TrimSpace(match.Code) == "" {
		return Credential{}, ErrInvalidCode
	}
	if match.Email != "" {
		match.Email = internal.NormalizeEmail(match.Email)
		if match.Binding == "" {
			match.Binding = m.binder.Bind(match.Email)
		}
	}
	if match.Binding == "" {
		return Credential{}, ErrNotFound
	}

	return m.store.Redeem(ctx, match, now)
}

// Purge removes every credential issued to email for purpose.
func (m *Manager) Purge(ctx context.Context, email string, purpose Purpose) error {
	return m.store.Purge(ctx, m.binder.Bind(email), purpose)
}

// PurgeAll removes every credential issued to email.
func (m *Manager) PurgeAll(ctx context.Context, email string) error {
	return m.store.PurgeAll(ctx, m.binder.Bind(email))
}
