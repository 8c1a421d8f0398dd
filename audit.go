package userauth

import (
	"io"

	"github.com/MrEthical07/userauth/internal/audit"
	"github.com/sirupsen/logrus"
)

// AuditEvent is one security-relevant engine outcome.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink discards every event.
type NoOpSink = audit.NoOpSink

// NewChannelSink returns a sink that forwards events to a buffered channel,
// read with Events().
func NewChannelSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink that writes one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewLogrusSink returns a sink that logs each event with structured fields.
func NewLogrusSink(logger logrus.FieldLogger) *audit.LogrusSink {
	return audit.NewLogrusSink(logger)
}
