package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestIssueParseRoundTrip(t *testing.T) {
	pub, priv := newEdKeys(t)
	clock := &fakeClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	m, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "codeauth",
		Audience:      "api",
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	created := clock.now.Add(24 * time.Hour)
	token, err := m.Issue(Claims{UserID: "u1", Email: "a@x.com", Role: 2, CreatedAt: created}, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.ID != "u1" || claims.Email != "a@x.com" || claims.Role != 2 {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.CreatedAt != created.Unix() {
		t.Fatalf("expected createdAt %d, got %d", created.Unix(), claims.CreatedAt)
	}
	if claims.RegisteredClaims.ID == "" {
		t.Fatal("expected jti to be set")
	}
	if got := claims.ExpiresAt.Time; !got.Equal(clock.now.Add(DefaultTTL)) {
		t.Fatalf("expected default ttl expiry, got %v", got)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	m, err := NewManager(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte(strings.Repeat("k", 32)),
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := m.Issue(Claims{UserID: "u1"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(token); err != nil {
		t.Fatalf("expected valid before expiry: %v", err)
	}

	clock.now = clock.now.Add(2 * time.Minute)
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	m, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: []byte(strings.Repeat("k", 32))})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := m.Issue(Claims{UserID: "u1"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	parts[2] = strings.Repeat("A", len(parts[2]))
	if _, err := m.Parse(strings.Join(parts, ".")); err == nil {
		t.Fatal("expected tampered signature to be rejected")
	}
	for _, junk := range []string{"", "a.b", "not-a-token", "a.b.c"} {
		if _, err := m.Parse(junk); err == nil {
			t.Fatalf("expected %q to be rejected", junk)
		}
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := SessionClaims{ID: "u1", RegisteredClaims: gjwt.RegisteredClaims{ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims)
	token, err := tok.SignedString([]byte("secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestParseRequiresExpiry(t *testing.T) {
	secret := []byte(strings.Repeat("k", 32))
	m, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: secret})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, SessionClaims{ID: "u1"})
	token, err := tok.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected token without exp to be rejected")
	}
}

func TestKeyRotationWithVerifyKeys(t *testing.T) {
	oldPub, oldPriv := newEdKeys(t)
	newPub, newPriv := newEdKeys(t)

	oldSigner, err := NewManager(Config{SigningMethod: MethodEd25519, PrivateKey: oldPriv, PublicKey: oldPub, KeyID: "k1"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := oldSigner.Issue(Claims{UserID: "u1"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rotated, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    newPriv,
		KeyID:         "k2",
		VerifyKeys:    map[string][]byte{"k1": oldPub, "k2": newPub},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := rotated.Parse(token); err != nil {
		t.Fatalf("expected old kid to verify: %v", err)
	}

	dropped, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    newPriv,
		KeyID:         "k2",
		VerifyKeys:    map[string][]byte{"k2": newPub},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := dropped.Parse(token); err == nil {
		t.Fatal("expected unknown kid to be rejected")
	}
}

func TestNewManagerValidation(t *testing.T) {
	pub, _ := newEdKeys(t)
	cases := []Config{
		{SigningMethod: MethodHS256, PrivateKey: []byte("short")},
		{SigningMethod: MethodEd25519},
		{SigningMethod: "rs256", PrivateKey: []byte(strings.Repeat("k", 32))},
		{SigningMethod: MethodEd25519, PublicKey: pub, Leeway: time.Hour},
		{SigningMethod: MethodEd25519, PublicKey: pub, TTL: -time.Second},
		{SigningMethod: MethodEd25519, PublicKey: pub, KeyID: "k9", VerifyKeys: map[string][]byte{"k1": pub}},
	}
	for i, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestIssueRequiresUserID(t *testing.T) {
	m, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: []byte(strings.Repeat("k", 32))})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.Issue(Claims{}, time.Minute); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestVerifyOnlyManagerCannotIssue(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.Issue(Claims{UserID: "u1"}, time.Minute); err == nil {
		t.Fatal("expected verify-only manager to refuse issuance")
	}
}
