package affect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPScorer calls an external text-sentiment service.
type HTTPScorer struct {
	baseURL string
	client  *http.Client
}

func NewHTTPScorer(baseURL string) *HTTPScorer {
	return &HTTPScorer{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *HTTPScorer) Score(ctx context.Context, text string) (Scores, error) {
	body, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return Scores{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return Scores{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Scores{}, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return Scores{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Scores{}, fmt.Errorf("sentiment HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out Scores
	if err := json.Unmarshal(b, &out); err != nil {
		return Scores{}, err
	}
	if out.Compound < -1 || out.Compound > 1 {
		return Scores{}, fmt.Errorf("compound score out of range: %v", out.Compound)
	}
	return out, nil
}
