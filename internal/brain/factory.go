package brain

import (
	"fmt"
	"strings"
)

// NewAdapter selects the generation adapter.
// Modes: auto (http when a URL is configured, else mock), http, mock.
func NewAdapter(mode, url string) (Adapter, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	url = strings.TrimSpace(url)

	switch mode {
	case "", "auto":
		if url != "" {
			return NewHTTPAdapter(url), nil
		}
		return MockAdapter{}, nil
	case "http":
		if url == "" {
			return nil, fmt.Errorf("BRAIN_ADAPTER_MODE=http requires BRAIN_HTTP_URL")
		}
		return NewHTTPAdapter(url), nil
	case "mock":
		return MockAdapter{}, nil
	default:
		return nil, fmt.Errorf("invalid BRAIN_ADAPTER_MODE: %q (expected auto|http|mock)", mode)
	}
}
