package convlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/amritansh005/Ai-Teacher/internal/convo"
)

// FileSink writes one JSON document per session under a log directory. Each
// Record call rewrites the document with the full history, so the file always
// reflects the latest complete log.
type FileSink struct {
	dir string
}

type fileRecord struct {
	SessionID string        `json:"session_id"`
	Timestamp time.Time     `json:"timestamp"`
	Messages  []convo.Entry `json:"messages"`
}

func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

func (s *FileSink) Record(_ context.Context, sessionID string, entries []convo.Entry) error {
	doc := fileRecord{
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Messages:  entries,
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal log: %w", err)
	}

	path := filepath.Join(s.dir, sessionID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("publish log: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error { return nil }
