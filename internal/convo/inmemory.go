package convo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process conversation log for local/dev use.
type InMemoryStore struct {
	mu   sync.RWMutex
	logs map[string][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{logs: make(map[string][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, sessionID string, role Role, content string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := Entry{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Seq:       len(s.logs[sessionID]),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.logs[sessionID] = append(s.logs[sessionID], entry)
	return entry, nil
}

func (s *InMemoryStore) History(_ context.Context, sessionID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[sessionID]
	out := make([]Entry, len(log))
	copy(out, log)
	return out, nil
}

func (s *InMemoryStore) Recent(_ context.Context, sessionID string, n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[sessionID]
	if n <= 0 || n > len(log) {
		n = len(log)
	}
	out := make([]Entry, n)
	copy(out, log[len(log)-n:])
	return out, nil
}

func (s *InMemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, sessionID)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
