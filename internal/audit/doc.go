// Package audit carries audit events from the engine to a Sink without
// putting the sink on the request path.
//
// A [Dispatcher] owns one goroutine and a bounded queue. With DropIfFull an
// overloaded queue discards events and counts them; otherwise Emit waits for
// room until its context ends. Close drains what is queued before returning.
//
// Events never hold codes, tokens, passwords or raw email addresses; the
// email appears only as its HMAC binding. Deciding which events to emit is
// the engine's job, not this package's.
package audit
