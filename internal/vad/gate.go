package vad

import "context"

// Gate turns raw classifier probabilities into a per-window speech decision.
// Windows of the wrong length and classifier failures are both treated as
// non-speech so a flaky model degrades to silence instead of failing the
// audio pipeline.
type Gate struct {
	classifier Classifier
	windowSize int
	threshold  float64
}

func NewGate(classifier Classifier, windowSize int, threshold float64) *Gate {
	if windowSize <= 0 {
		windowSize = 512
	}
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5
	}
	return &Gate{classifier: classifier, windowSize: windowSize, threshold: threshold}
}

// IsSpeech reports whether the window crosses the speech threshold.
func (g *Gate) IsSpeech(ctx context.Context, window []float32) bool {
	if len(window) != g.windowSize {
		return false
	}
	p, err := g.classifier.Classify(ctx, window)
	if err != nil {
		return false
	}
	return p >= g.threshold
}

// WindowSize is the sample count the gate expects per window.
func (g *Gate) WindowSize() int { return g.windowSize }
