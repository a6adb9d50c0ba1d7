package voice

import "time"

// segState is the endpointing phase of one session's audio stream.
type segState int

const (
	segIdle segState = iota
	segSpeaking
)

// Utterance is one finalized span of speech. Samples include the trailing
// silence windows: the silence only decides where the utterance ends, while
// downstream transcription benefits from the trailing context.
type Utterance struct {
	Samples        []float32
	SpeechDuration time.Duration
}

// Segmenter turns a per-window speech/silence stream into utterances. It is
// driven strictly in window-arrival order by a single goroutine per session.
type Segmenter struct {
	windowDuration    time.Duration
	silenceTimeout    time.Duration
	minSpeechDuration time.Duration

	state         segState
	buf           []float32
	speechWindows int
	silence       time.Duration
}

func NewSegmenter(windowDuration, silenceTimeout, minSpeechDuration time.Duration) *Segmenter {
	if windowDuration <= 0 {
		windowDuration = 32 * time.Millisecond
	}
	if silenceTimeout <= 0 {
		silenceTimeout = time.Second
	}
	return &Segmenter{
		windowDuration:    windowDuration,
		silenceTimeout:    silenceTimeout,
		minSpeechDuration: minSpeechDuration,
	}
}

// Process consumes one classified window. started is true on the
// Idle→Speaking transition; utterance is non-nil when contiguous silence
// reached the timeout and the buffered speech passed the minimum-duration
// policy.
func (s *Segmenter) Process(window []float32, speech bool) (started bool, utterance *Utterance) {
	switch s.state {
	case segIdle:
		if !speech {
			return false, nil
		}
		s.state = segSpeaking
		s.buf = append(s.buf, window...)
		s.speechWindows = 1
		s.silence = 0
		return true, nil

	case segSpeaking:
		s.buf = append(s.buf, window...)
		if speech {
			s.speechWindows++
			s.silence = 0
			return false, nil
		}
		s.silence += s.windowDuration
		if s.silence < s.silenceTimeout {
			return false, nil
		}
		return false, s.finalize()
	}
	return false, nil
}

// Speaking reports whether an utterance is currently open.
func (s *Segmenter) Speaking() bool {
	return s.state == segSpeaking
}

// SpeechDuration is the accumulated speech time of the open utterance.
func (s *Segmenter) SpeechDuration() time.Duration {
	return time.Duration(s.speechWindows) * s.windowDuration
}

func (s *Segmenter) finalize() *Utterance {
	speechDur := s.SpeechDuration()
	samples := s.buf

	s.state = segIdle
	s.buf = nil
	s.speechWindows = 0
	s.silence = 0

	// Too-short utterances are discarded, not errors. With the default
	// minimum of zero any detected speech is accepted.
	if speechDur == 0 || speechDur < s.minSpeechDuration {
		return nil
	}
	return &Utterance{Samples: samples, SpeechDuration: speechDur}
}

// Reset drops any open utterance on session teardown.
func (s *Segmenter) Reset() {
	s.state = segIdle
	s.buf = nil
	s.speechWindows = 0
	s.silence = 0
}
