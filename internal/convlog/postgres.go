package convlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amritansh005/Ai-Teacher/internal/convo"
	"github.com/amritansh005/Ai-Teacher/internal/reliability"
)

const (
	connectAttempts = 3
	connectBackoff  = 500 * time.Millisecond
	connectCap      = 4 * time.Second
)

// PostgresSink records conversation history in PostgreSQL.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	var pingErr error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		if pingErr = pool.Ping(ctx); pingErr == nil {
			break
		}
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(reliability.ExponentialBackoff(attempt, connectBackoff, connectCap)):
		}
	}
	if pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", pingErr)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresSink{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversation_log (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_log_session ON conversation_log (session_id, seq);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// Record upserts the session's entries. Re-recording after each turn is
// expected, so already-recorded sequence indices are skipped.
func (s *PostgresSink) Record(ctx context.Context, sessionID string, entries []convo.Entry) error {
	for _, entry := range entries {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO conversation_log (id, session_id, seq, role, content, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (session_id, seq) DO NOTHING`,
			entry.ID,
			sessionID,
			entry.Seq,
			string(entry.Role),
			entry.Content,
			entry.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("record entry %d: %w", entry.Seq, err)
		}
	}
	return nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
