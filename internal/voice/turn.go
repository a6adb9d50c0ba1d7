package voice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/amritansh005/Ai-Teacher/internal/affect"
	"github.com/amritansh005/Ai-Teacher/internal/brain"
	"github.com/amritansh005/Ai-Teacher/internal/convlog"
	"github.com/amritansh005/Ai-Teacher/internal/convo"
	"github.com/amritansh005/Ai-Teacher/internal/interrupt"
	"github.com/amritansh005/Ai-Teacher/internal/observability"
	"github.com/amritansh005/Ai-Teacher/internal/protocol"
	"github.com/amritansh005/Ai-Teacher/internal/session"
)

// FallbackApology is spoken when the generation collaborator fails. The turn
// continues through affect and synthesis on this text so the assistant never
// goes silent.
const FallbackApology = "I'm sorry, I'm having trouble thinking of a response right now. Could you ask me that again?"

// EmitFunc delivers one protocol event to the session's client. Implementations
// must tolerate being called after the client is gone.
type EmitFunc func(v any)

// TurnResult is what one completed turn produced.
type TurnResult struct {
	TurnID       string
	ResponseText string
	Emotion      string
	Synthesis    SynthesisResult
	SynthesisErr error
	Continuation interrupt.Continuation
}

// Coordinator drives one turn at a time per session: record input, generate,
// classify affect, synthesize, log, and check for pending continuations.
// Turns for one session are serialized by the caller; the coordinator itself
// is safe for concurrent turns across different sessions.
type Coordinator struct {
	store      convo.Store
	brain      brain.Adapter
	classifier *affect.Classifier
	synth      Synthesizer
	interrupts *interrupt.Controller
	sessions   *session.Manager
	metrics    *observability.Metrics
	sink       convlog.Sink

	historyWindow   int
	sentimentWindow int
}

func NewCoordinator(
	store convo.Store,
	adapter brain.Adapter,
	classifier *affect.Classifier,
	synth Synthesizer,
	interrupts *interrupt.Controller,
	sessions *session.Manager,
	metrics *observability.Metrics,
	sink convlog.Sink,
	historyWindow, sentimentWindow int,
) *Coordinator {
	if historyWindow <= 0 {
		historyWindow = 6
	}
	if sentimentWindow <= 0 {
		sentimentWindow = 3
	}
	return &Coordinator{
		store:           store,
		brain:           adapter,
		classifier:      classifier,
		synth:           synth,
		interrupts:      interrupts,
		sessions:        sessions,
		metrics:         metrics,
		sink:            sink,
		historyWindow:   historyWindow,
		sentimentWindow: sentimentWindow,
	}
}

// Interrupts exposes the controller for the gateway's barge-in path.
func (c *Coordinator) Interrupts() *interrupt.Controller { return c.interrupts }

// Synthesizer exposes the synthesis provider for stream passthrough.
func (c *Coordinator) Synthesizer() Synthesizer { return c.synth }

// RunTurn executes one full turn for already-textual input. ctx is the turn's
// cancellation scope: an interruption cancels it, and a canceled synthesis
// stage is reported as a stage failure, never a fatal error.
func (c *Coordinator) RunTurn(ctx context.Context, sessionID, input string, emit EmitFunc) TurnResult {
	return c.runTurn(ctx, sessionID, input, emit, true)
}

// RunTurnWithoutSynthesis runs the turn but leaves the synthesis stage to the
// caller, which streams audio directly from the synthesizer instead.
func (c *Coordinator) RunTurnWithoutSynthesis(ctx context.Context, sessionID, input string, emit EmitFunc) TurnResult {
	return c.runTurn(ctx, sessionID, input, emit, false)
}

func (c *Coordinator) runTurn(ctx context.Context, sessionID, input string, emit EmitFunc, synthesize bool) TurnResult {
	turnID := uuid.NewString()
	res := TurnResult{TurnID: turnID}

	if err := c.sessions.StartTurn(sessionID, turnID); err != nil {
		// Session may have been torn down between enqueue and execution.
		return res
	}
	defer c.sessions.EndTurn(sessionID, turnID)

	if _, err := c.store.Append(ctx, sessionID, convo.RoleUser, input); err != nil {
		emit(protocol.ErrorEvent{
			Type:      protocol.TypeError,
			SessionID: sessionID,
			Code:      "store_append_failed",
			Source:    "store",
			Retryable: true,
			Detail:    err.Error(),
		})
		return res
	}

	emit(protocol.StatusEvent{
		Type:      protocol.TypeStatus,
		SessionID: sessionID,
		Stage:     "generating",
		Message:   "Thinking...",
	})
	responseText := c.generate(ctx, sessionID, input, emit)
	responseText = SanitizeSpeechText(responseText)
	if responseText == "" {
		responseText = FallbackApology
	}
	res.ResponseText = responseText

	if _, err := c.store.Append(ctx, sessionID, convo.RoleAssistant, responseText); err != nil {
		emit(protocol.ErrorEvent{
			Type:      protocol.TypeError,
			SessionID: sessionID,
			Code:      "store_append_failed",
			Source:    "store",
			Retryable: true,
			Detail:    err.Error(),
		})
	}

	res.Emotion = c.label(ctx, sessionID)

	emit(protocol.AIResponseEvent{
		Type:      protocol.TypeAIResponse,
		SessionID: sessionID,
		Text:      responseText,
		Emotion:   res.Emotion,
	})

	if synthesize {
		emit(protocol.StatusEvent{
			Type:      protocol.TypeStatus,
			SessionID: sessionID,
			Stage:     "synthesizing",
			Message:   "Speaking...",
		})
		c.sessions.SetState(sessionID, session.StateSpeaking)
		res.Synthesis, res.SynthesisErr = c.synthesize(ctx, sessionID, responseText, res.Emotion, emit)
	}

	c.recordLog(sessionID)

	res.Continuation = c.interrupts.CheckContinuationNeeded(sessionID)
	if res.Continuation.Offer {
		emit(protocol.ContinuationAvailableEvent{
			Type:      protocol.TypeContinuationAvailable,
			SessionID: sessionID,
			Text:      res.Continuation.InterruptedText,
		})
	}

	return res
}

func (c *Coordinator) generate(ctx context.Context, sessionID, input string, emit EmitFunc) string {
	start := time.Now()

	history, err := c.store.Recent(ctx, sessionID, c.historyWindow)
	if err != nil {
		history = nil
	}
	turns := make([]brain.Turn, 0, len(history))
	for _, e := range history {
		if e.Role == convo.RoleInterruption {
			continue
		}
		turns = append(turns, brain.Turn{Role: string(e.Role), Content: e.Content})
	}

	text, err := c.brain.Generate(ctx, brain.MessageRequest{History: turns, Input: input})
	c.metrics.ObserveStage("generate", time.Since(start))
	if err != nil {
		c.metrics.ProviderErrors.WithLabelValues("brain", "generate").Inc()
		emit(protocol.StatusEvent{
			Type:      protocol.TypeStatus,
			SessionID: sessionID,
			Stage:     "generating",
			Message:   "Response generation failed, using fallback.",
		})
		return FallbackApology
	}
	return text
}

func (c *Coordinator) label(ctx context.Context, sessionID string) string {
	recent, err := c.store.Recent(ctx, sessionID, c.sentimentWindow)
	if err != nil {
		return affect.DefaultLabel
	}
	texts := make([]string, 0, len(recent))
	for _, e := range recent {
		if e.Role == convo.RoleInterruption {
			continue
		}
		texts = append(texts, e.Content)
	}
	return c.classifier.Label(ctx, texts)
}

func (c *Coordinator) synthesize(ctx context.Context, sessionID, text, emotion string, emit EmitFunc) (SynthesisResult, error) {
	start := time.Now()
	result, err := c.synth.Synthesize(ctx, sessionID, text, emotion)
	c.metrics.ObserveStage("synthesize", time.Since(start))
	if err != nil {
		c.metrics.ProviderErrors.WithLabelValues("tts", "synthesize").Inc()
		retryable := false
		var perr *ProviderError
		if errors.As(err, &perr) {
			retryable = perr.Retryable()
		}
		msg := err.Error()
		if errors.Is(err, context.Canceled) {
			msg = "synthesis canceled"
		}
		emit(protocol.TTSErrorEvent{
			Type:      protocol.TypeTTSError,
			SessionID: sessionID,
			Message:   msg,
			Retryable: retryable,
		})
		return SynthesisResult{}, err
	}

	emit(protocol.TTSCompleteEvent{
		Type:      protocol.TypeTTSComplete,
		SessionID: sessionID,
		Success:   result.Success,
		AudioURL:  result.AudioURL,
		Duration:  result.Duration.Seconds(),
	})
	return result, nil
}

// recordLog hands the session's full history to the conversation log sink.
// Fire and forget: logging never delays or fails a turn.
func (c *Coordinator) recordLog(sessionID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		entries, err := c.store.History(ctx, sessionID)
		if err != nil || len(entries) == 0 {
			return
		}
		if err := c.sink.Record(ctx, sessionID, entries); err != nil {
			c.metrics.ProviderErrors.WithLabelValues("convlog", "record").Inc()
		}
	}()
}
