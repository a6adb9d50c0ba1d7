package voice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amritansh005/Ai-Teacher/internal/affect"
	"github.com/amritansh005/Ai-Teacher/internal/brain"
	"github.com/amritansh005/Ai-Teacher/internal/convlog"
	"github.com/amritansh005/Ai-Teacher/internal/convo"
	"github.com/amritansh005/Ai-Teacher/internal/interrupt"
	"github.com/amritansh005/Ai-Teacher/internal/observability"
	"github.com/amritansh005/Ai-Teacher/internal/protocol"
	"github.com/amritansh005/Ai-Teacher/internal/session"
)

var (
	metricsOnce sync.Once
	metrics     *observability.Metrics
)

// Prometheus collectors register globally, so the package shares one set.
func testMetrics() *observability.Metrics {
	metricsOnce.Do(func() {
		metrics = observability.NewMetrics("voicetest")
	})
	return metrics
}

type collector struct {
	mu     sync.Mutex
	events []any
}

func (c *collector) emit(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, v)
}

func (c *collector) all() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.events))
	copy(out, c.events)
	return out
}

func (c *collector) typesSeen() []protocol.MessageType {
	var types []protocol.MessageType
	for _, ev := range c.all() {
		if mt, ok := protocol.MessageTypeOf(ev); ok {
			types = append(types, mt)
		}
	}
	return types
}

func (c *collector) has(mt protocol.MessageType) bool {
	for _, got := range c.typesSeen() {
		if got == mt {
			return true
		}
	}
	return false
}

func (c *collector) waitFor(t *testing.T, mt protocol.MessageType) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.has(mt) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q; saw %v", mt, c.typesSeen())
}

type scriptedBrain struct {
	text string
	err  error
}

func (b scriptedBrain) Generate(context.Context, brain.MessageRequest) (string, error) {
	return b.text, b.err
}

type neutralScorer struct{}

func (neutralScorer) Score(context.Context, string) (affect.Scores, error) {
	return affect.Scores{}, nil
}

func newTestCoordinator(t *testing.T, adapter brain.Adapter, synth Synthesizer) (*Coordinator, *session.Manager, convo.Store) {
	t.Helper()
	store := convo.NewInMemoryStore()
	sessions := session.NewManager(time.Minute)
	interrupts := interrupt.NewController(synth, sessions, store, 50)
	coord := NewCoordinator(
		store,
		adapter,
		affect.NewClassifier(neutralScorer{}),
		synth,
		interrupts,
		sessions,
		testMetrics(),
		convlog.NoopSink{},
		6, 3,
	)
	return coord, sessions, store
}

func TestRunTurnHappyPath(t *testing.T) {
	synth := NewMockSynthesizer()
	coord, sessions, store := newTestCoordinator(t, scriptedBrain{text: "The sky is blue."}, synth)
	sessions.Create("s1")

	col := &collector{}
	res := coord.RunTurn(context.Background(), "s1", "why is the sky blue?", col.emit)

	if res.ResponseText != "The sky is blue." {
		t.Fatalf("response = %q", res.ResponseText)
	}
	if res.Emotion != affect.DefaultLabel {
		t.Fatalf("emotion = %q, want %q", res.Emotion, affect.DefaultLabel)
	}
	if res.SynthesisErr != nil {
		t.Fatalf("synthesis error: %v", res.SynthesisErr)
	}
	for _, mt := range []protocol.MessageType{
		protocol.TypeStatus, protocol.TypeAIResponse, protocol.TypeTTSComplete,
	} {
		if !col.has(mt) {
			t.Fatalf("missing %q event; saw %v", mt, col.typesSeen())
		}
	}

	history, err := store.History(context.Background(), "s1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Role != convo.RoleUser || history[1].Role != convo.RoleAssistant {
		t.Fatalf("history roles = %v %v", history[0].Role, history[1].Role)
	}
	for i, e := range history {
		if e.Seq != i {
			t.Fatalf("entry %d has seq %d", i, e.Seq)
		}
	}

	s, err := sessions.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.ActiveTurnID != "" {
		t.Fatalf("active turn id %q not cleared", s.ActiveTurnID)
	}
}

func TestRunTurnGenerationFailureFallsBack(t *testing.T) {
	synth := NewMockSynthesizer()
	coord, sessions, store := newTestCoordinator(t, scriptedBrain{err: errors.New("brain down")}, synth)
	sessions.Create("s1")

	col := &collector{}
	res := coord.RunTurn(context.Background(), "s1", "hello?", col.emit)

	if res.ResponseText != FallbackApology {
		t.Fatalf("response = %q, want apology fallback", res.ResponseText)
	}
	// The turn still ran affect and synthesis on the fallback text.
	if !col.has(protocol.TypeAIResponse) || !col.has(protocol.TypeTTSComplete) {
		t.Fatalf("fallback turn missing events; saw %v", col.typesSeen())
	}
	if spoken, _, _ := synth.Status(context.Background(), "s1"); spoken != FallbackApology {
		t.Fatalf("synthesized %q, want apology", spoken)
	}

	history, _ := store.History(context.Background(), "s1")
	if len(history) != 2 || history[1].Content != FallbackApology {
		t.Fatalf("history = %+v", history)
	}
}

type failingSynth struct {
	*MockSynthesizer
}

func (f failingSynth) Synthesize(context.Context, string, string, string) (SynthesisResult, error) {
	return SynthesisResult{}, errors.New("tts exploded")
}

func TestRunTurnSynthesisFailureStillDeliversText(t *testing.T) {
	synth := failingSynth{NewMockSynthesizer()}
	coord, sessions, _ := newTestCoordinator(t, scriptedBrain{text: "answer"}, synth)
	sessions.Create("s1")

	col := &collector{}
	res := coord.RunTurn(context.Background(), "s1", "q", col.emit)

	if res.SynthesisErr == nil {
		t.Fatal("expected synthesis error")
	}
	if !col.has(protocol.TypeAIResponse) {
		t.Fatal("text response not delivered despite synthesis failure")
	}
	if !col.has(protocol.TypeTTSError) {
		t.Fatalf("missing tts_error event; saw %v", col.typesSeen())
	}
	if col.has(protocol.TypeTTSComplete) {
		t.Fatal("tts_complete emitted for failed synthesis")
	}
}

func TestRunTurnStripsMarkup(t *testing.T) {
	synth := NewMockSynthesizer()
	coord, sessions, store := newTestCoordinator(t, scriptedBrain{text: "*Gravity* pulls objects **together**."}, synth)
	sessions.Create("s1")

	res := coord.RunTurn(context.Background(), "s1", "what is gravity?", (&collector{}).emit)
	if strings.ContainsAny(res.ResponseText, "*_`#") {
		t.Fatalf("markup leaked into response: %q", res.ResponseText)
	}
	history, _ := store.History(context.Background(), "s1")
	if strings.ContainsAny(history[1].Content, "*_`#") {
		t.Fatalf("markup leaked into stored entry: %q", history[1].Content)
	}
}

func TestRunTurnOffersContinuationAfterInterruption(t *testing.T) {
	synth := NewMockSynthesizer()
	coord, sessions, _ := newTestCoordinator(t, scriptedBrain{text: "short answer"}, synth)
	sessions.Create("s1")

	// A prior explanation was interrupted mid-sentence.
	synth.SetSpeaking("s1", strings.Repeat("long explanation ", 5))
	if _, err := coord.Interrupts().HandleInterruption(context.Background(), "s1", "wait"); err != nil {
		t.Fatalf("HandleInterruption: %v", err)
	}

	col := &collector{}
	res := coord.RunTurn(context.Background(), "s1", "ok go on", col.emit)
	if !res.Continuation.Offer {
		t.Fatal("continuation not offered")
	}
	if !col.has(protocol.TypeContinuationAvailable) {
		t.Fatalf("missing continuation_available; saw %v", col.typesSeen())
	}
}

func TestRunTurnShortInterruptionNoContinuation(t *testing.T) {
	synth := NewMockSynthesizer()
	coord, sessions, _ := newTestCoordinator(t, scriptedBrain{text: "ok"}, synth)
	sessions.Create("s1")

	synth.SetSpeaking("s1", "brief")
	if _, err := coord.Interrupts().HandleInterruption(context.Background(), "s1", "stop"); err != nil {
		t.Fatalf("HandleInterruption: %v", err)
	}

	col := &collector{}
	res := coord.RunTurn(context.Background(), "s1", "next question", col.emit)
	if res.Continuation.Offer {
		t.Fatal("continuation offered for short fragment")
	}
	if col.has(protocol.TypeContinuationAvailable) {
		t.Fatal("continuation_available emitted for short fragment")
	}
}
