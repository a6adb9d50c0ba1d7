package convo

import (
	"context"
	"time"
)

// Role labels who produced a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleInterruption marks a barge-in event in the log; its content is the
	// user's stated interruption reason.
	RoleInterruption Role = "interruption-marker"
)

// Entry is one immutable line of a session's conversation log. Seq is
// assigned by the store at append time and is strictly increasing and
// gap-free per session.
type Entry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Seq       int       `json:"seq"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the append-only per-session conversation log. Entries are never
// edited or reordered; the only non-append mutation is whole-session Clear.
type Store interface {
	Append(ctx context.Context, sessionID string, role Role, content string) (Entry, error)
	History(ctx context.Context, sessionID string) ([]Entry, error)
	Recent(ctx context.Context, sessionID string, n int) ([]Entry, error)
	Clear(ctx context.Context, sessionID string) error
	Close() error
}
