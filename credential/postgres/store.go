package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/codeAuth/credential"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// poolIface is satisfied by *pgxpool.Pool and by pgxmock pools.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	lockBindingSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

	collisionSQL = `SELECT EXISTS (
		SELECT 1 FROM ephemeral_credentials
		WHERE binding = $1 AND code = $2 AND purpose <> $3 AND expires_at >= $4
	)`

	deleteByPurposeSQL = `DELETE FROM ephemeral_credentials WHERE binding = $1 AND purpose = $2`

	deleteByBindingSQL = `DELETE FROM ephemeral_credentials WHERE binding = $1`

	insertSQL = `INSERT INTO ephemeral_credentials
		(id, binding, email, code, purpose, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	redeemSQL = `DELETE FROM ephemeral_credentials
		WHERE id = (
			SELECT id FROM ephemeral_credentials
			WHERE binding = $1 AND code = $2
			  AND ($3::text = '' OR lower(email) = lower($3::text))
			ORDER BY issued_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id::text, binding, email, code, purpose, issued_at, expires_at`
)

// Store is a PostgreSQL credential.Store.
type Store struct {
	pool poolIface
}

// New returns a Store over pool.
func New(pool poolIface) *Store {
	return &Store{pool: pool}
}

// Connect opens a pgx pool for dsn and returns a Store with its close func.
func Connect(ctx context.Context, dsn string) (*Store, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, unavailable("connect", err)
	}
	return New(pool), pool.Close, nil
}

func (s *Store) Replace(ctx context.Context, c credential.Credential) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return unavailable("begin replace", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, lockBindingSQL, c.Binding); err != nil {
		return unavailable("lock binding", err)
	}

	var taken bool
	if err = tx.QueryRow(ctx, collisionSQL, c.Binding, c.Code, c.Purpose.String(), c.IssuedAt).Scan(&taken); err != nil {
		return unavailable("check code collision", err)
	}
	if taken {
		return credential.ErrCodeCollision
	}

	if _, err = tx.Exec(ctx, deleteByPurposeSQL, c.Binding, c.Purpose.String()); err != nil {
		return unavailable("delete previous credentials", err)
	}
	if _, err = tx.Exec(ctx, insertSQL,
		c.ID, c.Binding, c.Email, c.Code, c.Purpose.String(), c.IssuedAt, c.ExpiresAt,
	); err != nil {
		return unavailable("insert credential", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return unavailable("commit replace", err)
	}
	return nil
}

func (s *Store) Redeem(ctx context.Context, m credential.Matcher, now time.Time) (credential.Credential, error) {
	var (
		c       credential.Credential
		purpose string
	)
	err := s.pool.QueryRow(ctx, redeemSQL, m.Binding, m.Code, m.Email).Scan(
		&c.ID, &c.Binding, &c.Email, &c.Code, &purpose, &c.IssuedAt, &c.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return credential.Credential{}, credential.ErrNotFound
	}
	if err != nil {
		return credential.Credential{}, unavailable("redeem credential", err)
	}

	c.Purpose, err = credential.ParsePurpose(purpose)
	if err != nil {
		return credential.Credential{}, oops.Code("CREDENTIAL_CORRUPT").
			With("operation", "redeem credential").
			With("purpose", purpose).
			Wrap(err)
	}

	// The row is already gone; an expired match is lazily collected here.
	if c.Expired(now) {
		return credential.Credential{}, credential.ErrNotFound
	}
	return c, nil
}

func (s *Store) Purge(ctx context.Context, binding string, purpose credential.Purpose) error {
	if _, err := s.pool.Exec(ctx, deleteByPurposeSQL, binding, purpose.String()); err != nil {
		return unavailable("purge credentials", err)
	}
	return nil
}

func (s *Store) PurgeAll(ctx context.Context, binding string) error {
	if _, err := s.pool.Exec(ctx, deleteByBindingSQL, binding); err != nil {
		return unavailable("purge all credentials", err)
	}
	return nil
}

func unavailable(operation string, err error) error {
	return oops.Code("CREDENTIAL_STORE_UNAVAILABLE").
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", credential.ErrUnavailable, err))
}
