package voice

import (
	"testing"
	"time"
)

const testWindow = 10 * time.Millisecond

func speechWindow() []float32 {
	w := make([]float32, 4)
	for i := range w {
		w[i] = 0.5
	}
	return w
}

func silenceWindow() []float32 {
	return make([]float32, 4)
}

func TestSegmenterSilenceNeverStarts(t *testing.T) {
	s := NewSegmenter(testWindow, 50*time.Millisecond, 0)
	for i := 0; i < 100; i++ {
		started, utterance := s.Process(silenceWindow(), false)
		if started || utterance != nil {
			t.Fatalf("silence window %d started=%v utterance=%v", i, started, utterance)
		}
	}
	if s.Speaking() {
		t.Fatal("segmenter speaking after pure silence")
	}
}

func TestSegmenterStaysOpenBelowTimeout(t *testing.T) {
	// 50ms timeout = 5 windows of contiguous silence; 4 must not finalize.
	s := NewSegmenter(testWindow, 50*time.Millisecond, 0)

	started, _ := s.Process(speechWindow(), true)
	if !started {
		t.Fatal("first speech window did not start an utterance")
	}
	for i := 0; i < 4; i++ {
		if _, utterance := s.Process(silenceWindow(), false); utterance != nil {
			t.Fatalf("finalized after only %d silence windows", i+1)
		}
	}
	if !s.Speaking() {
		t.Fatal("state left Speaking before silence timeout")
	}
}

func TestSegmenterFinalizesAtTimeout(t *testing.T) {
	s := NewSegmenter(testWindow, 50*time.Millisecond, 0)
	s.Process(speechWindow(), true)

	var utterance *Utterance
	for i := 0; i < 5; i++ {
		_, utterance = s.Process(silenceWindow(), false)
	}
	if utterance == nil {
		t.Fatal("no utterance after reaching the silence timeout")
	}
	if s.Speaking() {
		t.Fatal("state still Speaking after finalize")
	}
	// Buffer includes the speech window plus all five silence windows.
	if got := len(utterance.Samples); got != 6*4 {
		t.Fatalf("utterance samples = %d, want %d", got, 6*4)
	}
	if utterance.SpeechDuration != testWindow {
		t.Fatalf("speech duration = %v, want %v", utterance.SpeechDuration, testWindow)
	}

	// Exactly one utterance: further silence does nothing.
	if _, again := s.Process(silenceWindow(), false); again != nil {
		t.Fatal("second utterance finalized from trailing silence")
	}
}

func TestSegmenterSpeechResetsSilenceClock(t *testing.T) {
	s := NewSegmenter(testWindow, 50*time.Millisecond, 0)
	s.Process(speechWindow(), true)

	// Alternate near-timeout silence runs with speech; never finalizes.
	for round := 0; round < 3; round++ {
		for i := 0; i < 4; i++ {
			if _, u := s.Process(silenceWindow(), false); u != nil {
				t.Fatalf("finalized during round %d", round)
			}
		}
		if _, u := s.Process(speechWindow(), true); u != nil {
			t.Fatal("finalized on a speech window")
		}
	}
	if !s.Speaking() {
		t.Fatal("utterance closed despite silence resets")
	}
}

func TestSegmenterMinSpeechDurationDiscards(t *testing.T) {
	// Require 30ms of speech; a single 10ms window must be discarded.
	s := NewSegmenter(testWindow, 50*time.Millisecond, 30*time.Millisecond)
	s.Process(speechWindow(), true)

	var utterance *Utterance
	for i := 0; i < 5; i++ {
		_, utterance = s.Process(silenceWindow(), false)
	}
	if utterance != nil {
		t.Fatal("short utterance not discarded")
	}
	if s.Speaking() {
		t.Fatal("state not reset after discard")
	}

	// Three speech windows meet the minimum.
	for i := 0; i < 3; i++ {
		s.Process(speechWindow(), true)
	}
	for i := 0; i < 5; i++ {
		_, utterance = s.Process(silenceWindow(), false)
	}
	if utterance == nil {
		t.Fatal("qualifying utterance discarded")
	}
	if utterance.SpeechDuration != 3*testWindow {
		t.Fatalf("speech duration = %v, want %v", utterance.SpeechDuration, 3*testWindow)
	}
}

func TestSegmenterReset(t *testing.T) {
	s := NewSegmenter(testWindow, 50*time.Millisecond, 0)
	s.Process(speechWindow(), true)
	s.Reset()
	if s.Speaking() {
		t.Fatal("Speaking after Reset")
	}
	for i := 0; i < 5; i++ {
		if _, u := s.Process(silenceWindow(), false); u != nil {
			t.Fatal("utterance finalized from pre-Reset buffer")
		}
	}
}

func TestSanitizeSpeechText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"*really* important", "really important"},
		{"plain text", "plain text"},
		{"__bold__ and `code` and # heading", "bold and code and heading"},
		{"", ""},
		{"***", ""},
		{"spaced   out\ttext", "spaced out text"},
	}
	for _, tc := range cases {
		if got := SanitizeSpeechText(tc.in); got != tc.want {
			t.Errorf("SanitizeSpeechText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
