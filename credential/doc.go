// Package credential models short-lived, single-use codes bound to an email
// address and a purpose.
//
// A Manager issues credentials through a Store backend. Issuing for an
// (email, purpose) pair replaces any earlier credential of that pair, and
// redeeming a credential deletes it in the same atomic step as the lookup.
//
// Backends shipped with this module:
//   - MemoryStore, a mutex-guarded map for tests and single-process use
//   - the Redis backend wired by the root package
//   - credential/postgres, a pgx backend with embedded migrations
package credential
