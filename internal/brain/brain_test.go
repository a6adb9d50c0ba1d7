package brain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPAdapterJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req MessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Input != "how do magnets work?" {
			t.Errorf("input = %q", req.Input)
		}
		if len(req.History) != 2 || req.History[0].Role != "user" || req.History[1].Role != "assistant" {
			t.Errorf("history = %+v", req.History)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "  Magnets align electron spins.  "})
	}))
	defer srv.Close()

	a := NewHTTPAdapter(srv.URL)
	got, err := a.Generate(context.Background(), MessageRequest{
		History: []Turn{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
		Input: "how do magnets work?",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Magnets align electron spins." {
		t.Fatalf("text = %q", got)
	}
}

func TestHTTPAdapterPlainTextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("plain answer\n"))
	}))
	defer srv.Close()

	got, err := NewHTTPAdapter(srv.URL).Generate(context.Background(), MessageRequest{Input: "q"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "plain answer" {
		t.Fatalf("text = %q", got)
	}
}

func TestHTTPAdapterErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewHTTPAdapter(srv.URL).Generate(context.Background(), MessageRequest{Input: "q"}); err == nil {
		t.Fatal("expected error on HTTP 503")
	}
}

func TestMockAdapterEchoes(t *testing.T) {
	got, err := MockAdapter{}.Generate(context.Background(), MessageRequest{Input: "hello"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(got, "hello") {
		t.Fatalf("response %q does not echo input", got)
	}
}

func TestNewAdapterModes(t *testing.T) {
	cases := []struct {
		name    string
		mode    string
		url     string
		wantErr bool
		isMock  bool
	}{
		{"auto with url", "auto", "http://brain:9000", false, false},
		{"auto without url", "auto", "", false, true},
		{"explicit mock", "mock", "http://brain:9000", false, true},
		{"http with url", "http", "http://brain:9000", false, false},
		{"http without url", "http", "", true, false},
		{"unknown", "quantum", "", true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := NewAdapter(tc.mode, tc.url)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewAdapter: %v", err)
			}
			if _, ok := a.(MockAdapter); ok != tc.isMock {
				t.Fatalf("mock = %v, want %v", ok, tc.isMock)
			}
		})
	}
}
