// Package codeAuth is an authentication engine built around short-lived,
// single-use codes. It offers four sign-in paths that share one credential
// mechanism: password login, login by emailed code, magic link, and
// password reset, plus first-time password setup for invited accounts.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Credentials
//
// Every code is stored against a binding, an HMAC of the email, never the
// email itself. At most one live credential exists per (email, purpose):
// issuing replaces the previous one. Redemption is an atomic find-and-delete,
// so a code works once even under concurrent identical requests. Expired
// codes are rejected at redemption and cleaned up lazily.
//
// # Failures
//
// Unknown emails, inactive accounts, wrong codes, expired codes and replays
// all return [ErrAuthFailed]. Input errors wrap [ErrValidation]. Storage and
// signing failures wrap [ErrInternal].
//
// # Architecture boundaries
//
// codeAuth is the public surface: [Engine], [Builder], [Config] and value
// types. Flow orchestration, the Redis store, throttles and audit dispatch
// live under internal/. Account storage is supplied through [IdentityStore]
// and delivery through notify.Notifier.
//
// # What this package must NOT do
//
//   - Log or audit codes, passwords or raw emails.
//   - Distinguish failure causes in returned errors.
//   - Import any sub-package that re-imports codeAuth (no import cycles).
package codeAuth
