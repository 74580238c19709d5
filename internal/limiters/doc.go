// Package limiters holds flow-level throttles built on the internal/rate
// primitives.
//
//   - [IssuanceLimiter] caps code requests per (flow, binding) and optionally
//     per (flow, client IP).
//
// Limiters are nil-safe: calling Check on a nil receiver returns nil.
//
// # What this package must NOT do
//
//   - Import codeAuth or any sibling internal package except internal/rate.
//   - Decide consequences. Flow functions map limiter errors to engine errors.
package limiters
