package affect

import (
	"context"
	"strings"
)

// MockScorer is a deterministic scorer for local operation. It counts a small
// lexicon of positive and negative words and normalizes the balance into a
// compound score, which is enough to exercise the full label ladder.
type MockScorer struct{}

var mockPositive = map[string]struct{}{
	"good": {}, "great": {}, "love": {}, "happy": {}, "wonderful": {},
	"thanks": {}, "thank": {}, "awesome": {}, "nice": {}, "fun": {},
}

var mockNegative = map[string]struct{}{
	"bad": {}, "hate": {}, "sad": {}, "terrible": {}, "awful": {},
	"angry": {}, "scared": {}, "afraid": {}, "wrong": {}, "no": {},
}

func (MockScorer) Score(_ context.Context, text string) (Scores, error) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return Scores{Neutral: 1}, nil
	}
	var pos, neg int
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:'\"")
		if _, ok := mockPositive[w]; ok {
			pos++
		}
		if _, ok := mockNegative[w]; ok {
			neg++
		}
	}
	total := float64(len(words))
	compound := (float64(pos) - float64(neg)) / total
	// Amplify so short emphatic phrases reach the outer rungs.
	compound *= 2
	if compound > 1 {
		compound = 1
	}
	if compound < -1 {
		compound = -1
	}
	return Scores{
		Compound: compound,
		Positive: float64(pos) / total,
		Negative: float64(neg) / total,
		Neutral:  1 - (float64(pos)+float64(neg))/total,
	}, nil
}
