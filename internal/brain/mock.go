package brain

import (
	"context"
	"fmt"
	"strings"
)

// MockAdapter produces deterministic responses for local operation and tests.
type MockAdapter struct{}

func (MockAdapter) Generate(_ context.Context, req MessageRequest) (string, error) {
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return "I didn't catch that. Could you say it again?", nil
	}
	if len(req.History) == 0 {
		return fmt.Sprintf("Hello! You said: %s", input), nil
	}
	return fmt.Sprintf("I hear you. You said: %s", input), nil
}
