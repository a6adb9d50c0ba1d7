package vad

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

// HTTPClassifier calls an external voice-activity model over HTTP.
type HTTPClassifier struct {
	baseURL    string
	sampleRate int
	client     *http.Client
}

func NewHTTPClassifier(baseURL string, sampleRate int) *HTTPClassifier {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &HTTPClassifier{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		sampleRate: sampleRate,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPClassifier) Classify(ctx context.Context, window []float32) (float64, error) {
	payload := struct {
		Samples    []float32 `json:"samples"`
		SampleRate int       `json:"sample_rate"`
	}{Samples: window, SampleRate: c.sampleRate}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("vad HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out struct {
		Probability float64 `json:"probability"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return 0, err
	}
	if out.Probability < 0 || out.Probability > 1 {
		return 0, fmt.Errorf("vad probability out of range: %v", out.Probability)
	}
	return out.Probability, nil
}
