package codeAuth

import (
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/codeAuth/internal/audit"
)

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// AuditSinkFunc adapts a function to [AuditSink].
type AuditSinkFunc = internalaudit.SinkFunc

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes JSON-encoded events to an [io.Writer], one per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink writes events as structured log records.
type SlogSink = internalaudit.SlogSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink returns a sink logging through logger, or slog.Default when nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
