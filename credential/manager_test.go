package credential

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type countingStore struct {
	Store
	mu    sync.Mutex
	calls int
}

func (s *countingStore) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingStore) Replace(ctx context.Context, c Credential) error {
	s.count()
	return s.Store.Replace(ctx, c)
}

func (s *countingStore) Redeem(ctx context.Context, m Matcher, now time.Time) (Credential, error) {
	s.count()
	return s.Store.Redeem(ctx, m, now)
}

func newTestManager(t *testing.T, store Store, opts ...Option) *Manager {
	t.Helper()
	binder, err := NewHMACBinder([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewHMACBinder: %v", err)
	}
	m, err := NewManager(store, binder, opts...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestIssueTwiceLeavesOneCredential(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store)
	ctx := context.Background()

	first, err := m.Issue(ctx, "user@x.com", PurposeRequestLogin, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, err := m.Issue(ctx, "user@x.com", PurposeRequestLogin, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if n := store.Len(second.Binding); n != 1 {
		t.Fatalf("expected 1 credential, got %d", n)
	}
	if first.Code != second.Code {
		if _, err := m.Redeem(ctx, Matcher{Email: "user@x.com", Code: first.Code}, time.Now()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected replaced code to be gone, got %v", err)
		}
	}
	if _, err := m.Redeem(ctx, Matcher{Email: "user@x.com", Code: second.Code}, time.Now()); err != nil {
		t.Fatalf("expected latest code to redeem, got %v", err)
	}
}

func TestIssueKeepsOtherPurposes(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store)
	ctx := context.Background()

	login, err := m.Issue(ctx, "user@x.com", PurposeRequestLogin, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m.Issue(ctx, "user@x.com", PurposeRequestResetPassword, time.Hour); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if n := store.Len(login.Binding); n != 2 {
		t.Fatalf("expected 2 credentials, got %d", n)
	}

	if err := m.Purge(ctx, "user@x.com", PurposeRequestLogin); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n := store.Len(login.Binding); n != 1 {
		t.Fatalf("expected 1 credential after purge, got %d", n)
	}
	if err := m.PurgeAll(ctx, "USER@x.com"); err != nil {
		t.Fatalf("PurgeAll: %v", err)
	}
	if n := store.Len(login.Binding); n != 0 {
		t.Fatalf("expected 0 credentials after purge all, got %d", n)
	}
}

func TestRedeemIsSingleUse(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	c, err := m.Issue(ctx, "user@x.com", PurposeRequestLogin, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := m.Redeem(ctx, Matcher{Binding: c.Binding, Code: c.Code}, time.Now())
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if got.ID != c.ID || got.Email != "user@x.com" {
		t.Fatalf("unexpected credential %+v", got)
	}
	if _, err := m.Redeem(ctx, Matcher{Binding: c.Binding, Code: c.Code}, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on replay, got %v", err)
	}
}

func TestRedeemExpiryIsInclusive(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestManager(t, NewMemoryStore(), WithClock(func() time.Time { return issued }))
	ctx := context.Background()

	c, err := m.Issue(ctx, "a@x.com", PurposeRequestLogin, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m.Redeem(ctx, Matcher{Binding: c.Binding, Code: c.Code}, c.ExpiresAt); err != nil {
		t.Fatalf("expected redeem at exact expiry to succeed, got %v", err)
	}

	c, err = m.Issue(ctx, "a@x.com", PurposeRequestLogin, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	late := c.ExpiresAt.Add(time.Nanosecond)
	if _, err := m.Redeem(ctx, Matcher{Binding: c.Binding, Code: c.Code}, late); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestIssueTruncatesToMicroseconds(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 123456789, time.UTC)
	m := newTestManager(t, NewMemoryStore(), WithClock(func() time.Time { return issued }))
	ctx := context.Background()

	c, err := m.Issue(ctx, "a@x.com", PurposeRequestLogin, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if c.IssuedAt.Nanosecond()%1000 != 0 || c.ExpiresAt.Nanosecond()%1000 != 0 {
		t.Fatalf("expected microsecond precision, got %v / %v", c.IssuedAt, c.ExpiresAt)
	}
	if want := issued.Truncate(time.Microsecond).Add(time.Minute); !c.ExpiresAt.Equal(want) {
		t.Fatalf("expected ExpiresAt %v, got %v", want, c.ExpiresAt)
	}
	if _, err := m.Redeem(ctx, Matcher{Binding: c.Binding, Code: c.Code}, c.ExpiresAt); err != nil {
		t.Fatalf("expected redeem at exact expiry to succeed, got %v", err)
	}
}

func TestRedeemEmailMustMatch(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store)
	ctx := context.Background()

	c, err := m.Issue(ctx, "a@x.com", PurposeRequestLogin, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m.Redeem(ctx, Matcher{Email: "b@x.com", Code: c.Code}, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other email, got %v", err)
	}
	if _, err := m.Redeem(ctx, Matcher{Email: "A@X.com", Code: c.Code}, time.Now()); err != nil {
		t.Fatalf("expected case-insensitive email match, got %v", err)
	}
}

func TestRedeemRejectsBadCodeWithoutStoreAccess(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	m := newTestManager(t, store)

	for _, code := range []string{"", "   ", strings.Repeat("A", CodeLength+1), " ABCDEFGH "} {
		_, err := m.Redeem(context.Background(), Matcher{Binding: "b", Code: code}, time.Now())
		if !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("code %q: expected ErrInvalidCode, got %v", code, err)
		}
	}
	if store.calls != 0 {
		t.Fatalf("expected no store calls, got %d", store.calls)
	}
}

func TestIssueRetriesOnCollision(t *testing.T) {
	codes := []string{"AAAAAAAA", "AAAAAAAA", "BBBBBBBB"}
	var i int
	gen := CodeGeneratorFunc(func(int) (string, error) {
		c := codes[i]
		i++
		return c, nil
	})
	store := NewMemoryStore()
	m := newTestManager(t, store, WithCodeGenerator(gen))
	ctx := context.Background()

	if _, err := m.Issue(ctx, "a@x.com", PurposeRequestLogin, time.Hour); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	c, err := m.Issue(ctx, "a@x.com", PurposeRequestResetPassword, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if c.Code != "BBBBBBBB" {
		t.Fatalf("expected retry to pick fresh code, got %q", c.Code)
	}
}

func TestIssueRejectsShortGeneratorOutput(t *testing.T) {
	gen := CodeGeneratorFunc(func(int) (string, error) { return "ABC", nil })
	m := newTestManager(t, NewMemoryStore(), WithCodeGenerator(gen))
	if _, err := m.Issue(context.Background(), "a@x.com", PurposeRequestLogin, time.Hour); err == nil {
		t.Fatal("expected error for short code")
	}
}

func TestConcurrentRedeemSucceedsOnce(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	ctx := context.Background()
	c, err := m.Issue(ctx, "a@x.com", PurposeRequestLogin, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Redeem(ctx, Matcher{Binding: c.Binding, Code: c.Code}, time.Now()); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if success != 1 {
		t.Fatalf("expected exactly one redemption, got %d", success)
	}
}

func TestPurposeNames(t *testing.T) {
	for p, name := range purposeNames {
		got, err := ParsePurpose(name)
		if err != nil || got != p {
			t.Fatalf("ParsePurpose(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParsePurpose("bogus"); err == nil {
		t.Fatal("expected error for unknown purpose")
	}
	if Purpose(99).Valid() {
		t.Fatal("purpose 99 must be invalid")
	}
}

func TestNewHMACBinderRejectsShortKey(t *testing.T) {
	if _, err := NewHMACBinder([]byte("short")); err == nil {
		t.Fatal("expected error")
	}
	b, err := NewHMACBinder([]byte("0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewHMACBinder: %v", err)
	}
	if !b.Verify("A@x.com", b.Bind("a@x.com")) {
		t.Fatal("Verify failed for matching email")
	}
}
