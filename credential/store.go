package credential

import (
	"context"
	"time"
)

// Store is the persistence contract used by Manager. Every method is keyed by
// binding so implementations never index on raw email.
type Store interface {
	// Replace atomically removes every credential for (c.Binding, c.Purpose)
	// and stores c. It returns ErrCodeCollision if c.Code is already held by
	// a live credential for the same binding.
	Replace(ctx context.Context, c Credential) error
	// Redeem finds a credential for m with ExpiresAt >= now and deletes it in
	// the same atomic step. It returns ErrNotFound otherwise.
	Redeem(ctx context.Context, m Matcher, now time.Time) (Credential, error)
	// Purge removes every credential for (binding, purpose).
	Purge(ctx context.Context, binding string, purpose Purpose) error
	// PurgeAll removes every credential for binding.
	PurgeAll(ctx context.Context, binding string) error
}
