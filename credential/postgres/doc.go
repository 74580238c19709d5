// Package postgres implements credential.Store on PostgreSQL using pgx.
//
// Replace serializes issuers of the same binding with a transaction-scoped
// advisory lock. Redeem is a single DELETE ... RETURNING over a row locked
// with FOR UPDATE SKIP LOCKED, so concurrent redemptions of one code cannot
// both succeed.
package postgres
