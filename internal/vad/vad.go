// Package vad decides whether fixed-size audio windows contain speech.
package vad

import (
	"context"
	"math"
)

// Classifier scores one analysis window with a speech probability in [0, 1].
type Classifier interface {
	Classify(ctx context.Context, window []float32) (float64, error)
}

// EnergyClassifier is a pure-Go fallback classifier based on RMS energy.
// It maps the window's RMS level onto a probability so the same Gate
// threshold works for both the model-backed and the energy path.
type EnergyClassifier struct {
	// FullScaleRMS is the RMS level mapped to probability 1.0.
	FullScaleRMS float64
}

func NewEnergyClassifier() *EnergyClassifier {
	return &EnergyClassifier{FullScaleRMS: 0.06}
}

func (c *EnergyClassifier) Classify(_ context.Context, window []float32) (float64, error) {
	if len(window) == 0 {
		return 0, nil
	}
	var sum float64
	for _, s := range window {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(window)))

	full := c.FullScaleRMS
	if full <= 0 {
		full = 0.06
	}
	p := rms / full
	if p > 1 {
		p = 1
	}
	return p, nil
}
