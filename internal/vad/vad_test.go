package vad

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubClassifier struct {
	p   float64
	err error
}

func (s stubClassifier) Classify(context.Context, []float32) (float64, error) {
	return s.p, s.err
}

func TestGateThreshold(t *testing.T) {
	window := make([]float32, 4)
	cases := []struct {
		name string
		p    float64
		want bool
	}{
		{"above", 0.9, true},
		{"at threshold", 0.5, true},
		{"below", 0.49, false},
		{"silence", 0.0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGate(stubClassifier{p: tc.p}, 4, 0.5)
			if got := g.IsSpeech(context.Background(), window); got != tc.want {
				t.Fatalf("IsSpeech with p=%v = %v, want %v", tc.p, got, tc.want)
			}
		})
	}
}

func TestGateWrongWindowLength(t *testing.T) {
	g := NewGate(stubClassifier{p: 1.0}, 512, 0.5)
	if g.IsSpeech(context.Background(), make([]float32, 511)) {
		t.Fatal("short window classified as speech")
	}
	if g.IsSpeech(context.Background(), make([]float32, 513)) {
		t.Fatal("long window classified as speech")
	}
}

func TestGateClassifierErrorIsSilence(t *testing.T) {
	g := NewGate(stubClassifier{p: 1.0, err: errors.New("model down")}, 4, 0.5)
	if g.IsSpeech(context.Background(), make([]float32, 4)) {
		t.Fatal("classifier error treated as speech")
	}
}

func TestEnergyClassifier(t *testing.T) {
	c := NewEnergyClassifier()

	silence := make([]float32, 512)
	p, err := c.Classify(context.Background(), silence)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if p != 0 {
		t.Fatalf("silence probability = %v, want 0", p)
	}

	loud := make([]float32, 512)
	for i := range loud {
		loud[i] = 0.5
	}
	p, err = c.Classify(context.Background(), loud)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if p != 1 {
		t.Fatalf("loud probability = %v, want 1 (clamped)", p)
	}
}

func TestHTTPClassifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Errorf("path = %q, want /classify", r.URL.Path)
		}
		var req struct {
			Samples    []float32 `json:"samples"`
			SampleRate int       `json:"sample_rate"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.SampleRate != 16000 {
			t.Errorf("sample_rate = %d, want 16000", req.SampleRate)
		}
		if len(req.Samples) != 512 {
			t.Errorf("samples = %d, want 512", len(req.Samples))
		}
		json.NewEncoder(w).Encode(map[string]float64{"probability": 0.82})
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, 16000)
	p, err := c.Classify(context.Background(), make([]float32, 512))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if p != 0.82 {
		t.Fatalf("probability = %v, want 0.82", p)
	}
}

func TestHTTPClassifierServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, 16000)
	if _, err := c.Classify(context.Background(), make([]float32, 512)); err == nil {
		t.Fatal("expected error on HTTP 503")
	}
}
