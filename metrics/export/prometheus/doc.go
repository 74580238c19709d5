// Package prometheus exposes codeAuth engine metrics through
// client_golang.
//
// [NewCollector] returns a collector that snapshots the engine on each
// scrape. Register it with your own registry, or mount [Handler] which uses a
// private one. Counters are named codeauth_*_total and the redemption
// latency histogram is codeauth_redeem_latency_seconds.
package prometheus
