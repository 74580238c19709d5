package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

// DefaultTTL is the token lifetime when neither Config.TTL nor the Issue
// call supplies one.
const DefaultTTL = 24 * time.Hour

const maxLeeway = 2 * time.Minute

var (
	errNoSigningKey = errors.New("jwt: manager has no signing key")
	errMissingKID   = errors.New("jwt: token has no kid")
	errUnknownKID   = errors.New("jwt: unknown kid")
)

// Config configures a Manager.
//
// For MethodHS256 PrivateKey is the shared secret. For MethodEd25519
// PrivateKey signs and PublicKey (or VerifyKeys, keyed by kid) verifies.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
	// Now overrides the clock used for issuance and expiry checks.
	Now func() time.Time
}

// Claims is the identity snapshot placed in a token.
type Claims struct {
	UserID string
	Email  string
	Role   int
	// CreatedAt is an application marker carried verbatim in the token.
	CreatedAt time.Time
}

// SessionClaims is the JWT body.
type SessionClaims struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Role      int    `json:"role,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and parses access tokens. Key material is decoded once at
// construction.
type Manager struct {
	ttl      time.Duration
	issuer   string
	audience string
	kid      string
	now      func() time.Time

	method  jwt.SigningMethod
	signKey any
	// byKID is consulted when non-empty; otherwise every token verifies
	// against verifyKey.
	byKID     map[string]any
	verifyKey any
	parser    *jwt.Parser
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	m := &Manager{
		ttl:      cfg.TTL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		kid:      strings.TrimSpace(cfg.KeyID),
		now:      cfg.Now,
	}
	if m.ttl == 0 {
		m.ttl = DefaultTTL
	}
	if m.ttl < 0 {
		return nil, fmt.Errorf("jwt: negative ttl %s", cfg.TTL)
	}
	if cfg.Leeway < 0 || cfg.Leeway > maxLeeway {
		return nil, fmt.Errorf("jwt: leeway must be within [0, %s]", maxLeeway)
	}
	if m.now == nil {
		m.now = time.Now
	}

	var err error
	switch cfg.SigningMethod {
	case MethodHS256:
		err = m.loadHMAC(cfg)
	case MethodEd25519:
		err = m.loadEd25519(cfg)
	default:
		err = fmt.Errorf("jwt: unsupported signing method %q", cfg.SigningMethod)
	}
	if err != nil {
		return nil, err
	}
	if m.kid != "" && len(m.byKID) > 0 {
		if _, ok := m.byKID[m.kid]; !ok {
			return nil, fmt.Errorf("jwt: KeyID %q is not among VerifyKeys", m.kid)
		}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}
	m.parser = jwt.NewParser(opts...)
	return m, nil
}

func (m *Manager) loadHMAC(cfg Config) error {
	if len(cfg.PrivateKey) < 32 {
		return errors.New("jwt: hs256 secret must be at least 32 bytes")
	}
	m.method = jwt.SigningMethodHS256
	m.signKey = cfg.PrivateKey
	m.verifyKey = cfg.PrivateKey
	if len(cfg.VerifyKeys) > 0 {
		m.byKID = make(map[string]any, len(cfg.VerifyKeys))
		for kid, secret := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return errors.New("jwt: verify key with empty kid")
			}
			m.byKID[kid] = secret
		}
	}
	return nil
}

func (m *Manager) loadEd25519(cfg Config) error {
	m.method = jwt.SigningMethodEdDSA
	if len(cfg.PrivateKey) > 0 {
		priv, err := decodeEdPrivate(cfg.PrivateKey)
		if err != nil {
			return err
		}
		m.signKey = priv
	}
	if len(cfg.PublicKey) > 0 {
		pub, err := decodeEdPublic(cfg.PublicKey)
		if err != nil {
			return err
		}
		m.verifyKey = pub
	}
	if len(cfg.VerifyKeys) > 0 {
		m.byKID = make(map[string]any, len(cfg.VerifyKeys))
		for kid, raw := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return errors.New("jwt: verify key with empty kid")
			}
			pub, err := decodeEdPublic(raw)
			if err != nil {
				return fmt.Errorf("jwt: verify key %q: %w", kid, err)
			}
			m.byKID[kid] = pub
		}
	}
	if m.verifyKey == nil && len(m.byKID) == 0 {
		return errors.New("jwt: ed25519 needs PublicKey or VerifyKeys")
	}
	return nil
}

// Issue signs c with an expiry ttl from now. A zero ttl uses Config.TTL.
func (m *Manager) Issue(c Claims, ttl time.Duration) (string, error) {
	if c.UserID == "" {
		return "", errors.New("jwt: claims require a user id")
	}
	if m.signKey == nil {
		return "", errNoSigningKey
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	now := m.now()
	body := SessionClaims{
		ID:    c.UserID,
		Email: c.Email,
		Role:  c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   c.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if !c.CreatedAt.IsZero() {
		body.CreatedAt = c.CreatedAt.Unix()
	}
	if m.audience != "" {
		body.Audience = jwt.ClaimStrings{m.audience}
	}

	token := jwt.NewWithClaims(m.method, body)
	if m.kid != "" {
		token.Header["kid"] = m.kid
	}
	return token.SignedString(m.signKey)
}

// Parse verifies raw and returns its claims.
func (m *Manager) Parse(raw string) (*SessionClaims, error) {
	token, err := m.parser.ParseWithClaims(raw, &SessionClaims{}, m.keyFor)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (m *Manager) keyFor(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if len(m.byKID) > 0 {
		if kid == "" {
			return nil, errMissingKID
		}
		key, ok := m.byKID[kid]
		if !ok {
			return nil, errUnknownKID
		}
		return key, nil
	}
	if m.kid != "" && kid != m.kid {
		return nil, errUnknownKID
	}
	return m.verifyKey, nil
}

// decodeEdPrivate accepts a raw 64-byte key or PEM.
func decodeEdPrivate(b []byte) (ed25519.PrivateKey, error) {
	if len(b) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(b), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(b)
	if err != nil {
		return nil, fmt.Errorf("jwt: ed25519 private key: %w", err)
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwt: PEM does not hold an ed25519 private key")
	}
	return key, nil
}

// decodeEdPublic accepts a raw 32-byte key or PEM.
func decodeEdPublic(b []byte) (ed25519.PublicKey, error) {
	if len(b) == ed25519.PublicKeySize {
		return ed25519.PublicKey(b), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(b)
	if err != nil {
		return nil, fmt.Errorf("jwt: ed25519 public key: %w", err)
	}
	key, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("jwt: PEM does not hold an ed25519 public key")
	}
	return key, nil
}
