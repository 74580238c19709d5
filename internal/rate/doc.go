// Package rate provides the Redis fixed-window primitives behind the engine's
// throttles.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key
// suffixes, appended to a configurable prefix:
//   - al:  password login failures per email
//   - ali: password login failures per client IP
//
// # What this package must NOT do
//
//   - Implement flow-specific policies (those live in internal/limiters).
//   - Be imported outside the codeAuth module.
package rate
