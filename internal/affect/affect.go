// Package affect maps recent conversation sentiment onto a discrete emotion
// label used to style synthesized speech.
package affect

import "context"

// Scores is one sentiment analysis result. Compound is the only component the
// label ladder consumes; the rest are carried for diagnostics.
type Scores struct {
	Compound float64 `json:"compound"`
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// Scorer computes sentiment scores for one piece of text.
type Scorer interface {
	Score(ctx context.Context, text string) (Scores, error)
}

const DefaultLabel = "default"

// ladder maps an average compound score onto a label. Evaluated top-down,
// first match wins; bounds are inclusive for the positive rungs and exclusive
// for the negative ones, so exactly one rung matches any score in [-1, 1].
var ladder = []struct {
	bound float64
	label string
}{
	{0.5, "cheerful"},
	{0.3, "excited"},
	{0.1, "friendly"},
	{-0.1, DefaultLabel},
	{-0.3, "sad"},
	{-0.5, "angry"},
}

// labelFor resolves a single averaged compound score.
func labelFor(avg float64) string {
	for i, rung := range ladder {
		if i < 3 {
			if avg >= rung.bound {
				return rung.label
			}
		} else if avg > rung.bound {
			return rung.label
		}
	}
	return "terrified"
}

// Classifier scores the tail of a conversation and averages the compounds.
type Classifier struct {
	scorer Scorer
}

func NewClassifier(scorer Scorer) *Classifier {
	return &Classifier{scorer: scorer}
}

// Label scores each non-empty text, averages the compound values, and maps
// the average through the ladder. Entries the scorer fails on are skipped;
// if nothing scores, the default label is returned.
func (c *Classifier) Label(ctx context.Context, texts []string) string {
	var (
		sum float64
		n   int
	)
	for _, text := range texts {
		if text == "" {
			continue
		}
		scores, err := c.scorer.Score(ctx, text)
		if err != nil {
			continue
		}
		sum += scores.Compound
		n++
	}
	if n == 0 {
		return DefaultLabel
	}
	return labelFor(sum / float64(n))
}
