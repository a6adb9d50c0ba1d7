package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/amritansh005/Ai-Teacher/internal/audio"
)

// MockTranscriber produces deterministic transcripts for local operation.
type MockTranscriber struct {
	SampleRate int
}

func (m MockTranscriber) rate() int {
	if m.SampleRate > 0 {
		return m.SampleRate
	}
	return 16000
}

func (m MockTranscriber) TranscribeUtterance(_ context.Context, samples []float32) (Transcription, error) {
	if len(samples) == 0 {
		return Transcription{}, nil
	}
	seconds := float64(len(samples)) / float64(m.rate())
	return Transcription{
		Text:       fmt.Sprintf("mock transcript of %.1fs of audio", seconds),
		Confidence: 0.9,
	}, nil
}

func (m MockTranscriber) Capture(_ context.Context, seconds float64) (Transcription, error) {
	return Transcription{
		Text:       fmt.Sprintf("mock captured %.1fs of audio", seconds),
		Confidence: 0.9,
	}, nil
}

// MockSynthesizer tracks speaking state per session without producing real
// audio, which is enough to exercise barge-in handling end to end.
type MockSynthesizer struct {
	SampleRate int

	mu       sync.Mutex
	speaking map[string]string
}

func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{speaking: make(map[string]string)}
}

func (m *MockSynthesizer) rate() int {
	if m.SampleRate > 0 {
		return m.SampleRate
	}
	return 16000
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, sessionID, text, emotion string) (SynthesisResult, error) {
	if err := ctx.Err(); err != nil {
		return SynthesisResult{}, err
	}
	m.mu.Lock()
	m.speaking[sessionID] = text
	m.mu.Unlock()

	// Rough speaking-rate estimate, 15 characters per second.
	dur := time.Duration(float64(len(text)) / 15 * float64(time.Second))
	return SynthesisResult{
		Success:  true,
		AudioURL: fmt.Sprintf("mock://audio/%s?emotion=%s", sessionID, emotion),
		Duration: dur,
	}, nil
}

func (m *MockSynthesizer) SynthesizeStream(ctx context.Context, sessionID, text, _ string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.speaking[sessionID] = text
	m.mu.Unlock()

	// One second of silence as placeholder audio.
	wav, err := audio.EncodeWAV(make([]float32, m.rate()), m.rate())
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(wav)), nil
}

func (m *MockSynthesizer) Stop(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.speaking, sessionID)
	return nil
}

func (m *MockSynthesizer) Status(_ context.Context, sessionID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.speaking[sessionID]
	return text, ok, nil
}

// SetSpeaking seeds speaking state, for tests that begin mid-utterance.
func (m *MockSynthesizer) SetSpeaking(sessionID, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.speaking[sessionID] = text
}
