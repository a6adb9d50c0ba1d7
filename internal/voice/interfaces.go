package voice

import (
	"context"
	"io"
	"time"
)

// Transcription is one speech-to-text result.
type Transcription struct {
	Text       string
	Confidence float64
}

// Transcriber converts audio into text. A failed or empty transcription is
// surfaced as empty text, never as a session-fatal condition.
type Transcriber interface {
	// TranscribeUtterance transcribes finalized utterance samples.
	TranscribeUtterance(ctx context.Context, samples []float32) (Transcription, error)
	// Capture asks the collaborator to record from its own input for the
	// given duration and transcribe the result.
	Capture(ctx context.Context, seconds float64) (Transcription, error)
}

// SynthesisResult is the buffered-metadata synthesis reply.
type SynthesisResult struct {
	Success  bool
	AudioURL string
	Duration time.Duration
}

// Synthesizer speaks assistant responses. Stop and Status serve barge-in
// handling and may be called while a Synthesize for the same session is in
// flight.
type Synthesizer interface {
	Synthesize(ctx context.Context, sessionID, text, emotion string) (SynthesisResult, error)
	// SynthesizeStream returns raw audio bytes for passthrough delivery.
	SynthesizeStream(ctx context.Context, sessionID, text, emotion string) (io.ReadCloser, error)
	Stop(ctx context.Context, sessionID string) error
	Status(ctx context.Context, sessionID string) (currentText string, speaking bool, err error)
}
