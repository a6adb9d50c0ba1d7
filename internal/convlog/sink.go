// Package convlog records finished conversations with an external durable
// sink. Recording is fire-and-forget from the turn pipeline's point of view:
// sink failures are surfaced to metrics, never to the session.
package convlog

import (
	"context"
	"strings"

	"github.com/amritansh005/Ai-Teacher/internal/convo"
)

// Sink durably records a session's full ordered history on demand.
type Sink interface {
	Record(ctx context.Context, sessionID string, entries []convo.Entry) error
	Close() error
}

// NewSink picks a backend: Postgres when a database URL is configured, a
// local JSON file tree when a log directory is configured, otherwise a noop.
func NewSink(ctx context.Context, databaseURL, logDir string) (Sink, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresSink(ctx, databaseURL)
	}
	if strings.TrimSpace(logDir) != "" {
		return NewFileSink(logDir)
	}
	return NoopSink{}, nil
}

// NoopSink discards everything.
type NoopSink struct{}

func (NoopSink) Record(context.Context, string, []convo.Entry) error { return nil }
func (NoopSink) Close() error                                        { return nil }
