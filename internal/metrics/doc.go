// Package metrics keeps the engine's in-process counters and the credential
// redemption latency histogram.
//
// Each counter sits on its own cache line and is bumped with a single atomic
// add. The histogram has eight buckets, 5ms through 500ms plus +Inf, matched
// on whole milliseconds. Snapshot copies everything into plain maps for the
// exporters under metrics/export.
//
// The package performs no I/O and imports nothing else from codeAuth.
package metrics
