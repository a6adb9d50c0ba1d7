package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/amritansh005/Ai-Teacher/internal/audio"
	"github.com/amritansh005/Ai-Teacher/internal/reliability"
)

// ProviderError carries the HTTP status of a failed collaborator call so the
// gateway can tell the client whether retrying makes sense.
type ProviderError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s HTTP %d: %s", e.Provider, e.Status, e.Detail)
}

func (e *ProviderError) Retryable() bool {
	return reliability.IsRetryableHTTPStatus(e.Status)
}

func providerError(provider string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &ProviderError{
		Provider: provider,
		Status:   resp.StatusCode,
		Detail:   strings.TrimSpace(string(b)),
	}
}

// HTTPTranscriber uploads utterance audio as WAV to the transcription
// collaborator, or sends a capture directive when the collaborator records
// from its own input.
type HTTPTranscriber struct {
	baseURL    string
	sampleRate int
	client     *http.Client
}

func NewHTTPTranscriber(baseURL string, sampleRate int) *HTTPTranscriber {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &HTTPTranscriber{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		sampleRate: sampleRate,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (t *HTTPTranscriber) TranscribeUtterance(ctx context.Context, samples []float32) (Transcription, error) {
	if len(samples) == 0 {
		return Transcription{}, nil
	}
	wav, err := audio.EncodeWAV(samples, t.sampleRate)
	if err != nil {
		return Transcription{}, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return Transcription{}, err
	}
	if _, err := fw.Write(wav); err != nil {
		return Transcription{}, err
	}
	if err := mw.Close(); err != nil {
		return Transcription{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transcribe", &body)
	if err != nil {
		return Transcription{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return t.do(req)
}

func (t *HTTPTranscriber) Capture(ctx context.Context, seconds float64) (Transcription, error) {
	if seconds <= 0 {
		seconds = 5
	}
	payload, err := json.Marshal(struct {
		Duration float64 `json:"duration"`
		Language string  `json:"language"`
	}{Duration: seconds, Language: "auto"})
	if err != nil {
		return Transcription{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transcribe", bytes.NewReader(payload))
	if err != nil {
		return Transcription{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	return t.do(req)
}

func (t *HTTPTranscriber) do(req *http.Request) (Transcription, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return Transcription{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Transcription{}, providerError("asr", resp)
	}

	var out struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return Transcription{}, err
	}
	return Transcription{
		Text:       strings.TrimSpace(out.Text),
		Confidence: out.Confidence,
	}, nil
}

// HTTPSynthesizer talks to the speech-synthesis collaborator.
type HTTPSynthesizer struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSynthesizer(baseURL string) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type synthesizeRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Emotion   string `json:"emotion"`
	Stream    bool   `json:"stream"`
}

func (s *HTTPSynthesizer) Synthesize(ctx context.Context, sessionID, text, emotion string) (SynthesisResult, error) {
	payload, err := json.Marshal(synthesizeRequest{
		SessionID: sessionID,
		Text:      text,
		Emotion:   emotion,
		Stream:    true,
	})
	if err != nil {
		return SynthesisResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return SynthesisResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return SynthesisResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return SynthesisResult{}, providerError("tts", resp)
	}

	var out struct {
		Success       bool    `json:"success"`
		AudioURL      string  `json:"audio_url"`
		AudioDuration float64 `json:"audio_duration"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return SynthesisResult{}, err
	}
	return SynthesisResult{
		Success:  out.Success,
		AudioURL: out.AudioURL,
		Duration: time.Duration(out.AudioDuration * float64(time.Second)),
	}, nil
}

func (s *HTTPSynthesizer) SynthesizeStream(ctx context.Context, sessionID, text, emotion string) (io.ReadCloser, error) {
	payload, err := json.Marshal(synthesizeRequest{
		SessionID: sessionID,
		Text:      text,
		Emotion:   emotion,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize_stream", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, providerError("tts", resp)
	}
	return resp.Body, nil
}

func (s *HTTPSynthesizer) Stop(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/stop/"+sessionID, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return providerError("tts", resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (s *HTTPSynthesizer) Status(ctx context.Context, sessionID string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/status/"+sessionID, nil)
	if err != nil {
		return "", false, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false, providerError("tts", resp)
	}

	var out struct {
		CurrentText string `json:"current_text"`
		IsSpeaking  bool   `json:"is_speaking"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", false, err
	}
	return out.CurrentText, out.IsSpeaking, nil
}
