// Package stores provides the Redis backend for ephemeral credentials.
//
// # Design
//
// Each credential is a versioned, binary-encoded record stored under a key
// derived from its binding and code, with a Redis TTL slightly longer than its
// logical lifetime. A per-(binding, purpose) set indexes live codes so a new
// issuance can remove its predecessors. Replace, Redeem and Purge run as
// WATCH/MULTI optimistic transactions with bounded retry on contention, which
// makes redemption a single find-and-delete.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control for credential
// records. It does NOT generate codes, derive bindings, or make
// authentication decisions; those belong to package credential and to the
// flow functions in internal/flows.
//
// # What this package must NOT do
//
//   - Import codeAuth or internal/flows.
//   - Log or expose codes.
//   - Key records by raw email.
package stores
