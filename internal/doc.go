// Package internal contains helpers private to codeAuth: random code and
// secret generation, email normalization and the HMAC binding.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: flow orchestrators behind every Engine operation
//   - limiters: code issuance throttle
//   - metrics: lock-free counters and latency histograms
//   - rate: Redis fixed-window primitives and the password login throttle
//   - stores: Redis credential backend
package internal
