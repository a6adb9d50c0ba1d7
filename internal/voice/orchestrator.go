package voice

import (
	"context"
	"strings"
	"sync"

	"github.com/amritansh005/Ai-Teacher/internal/audio"
	"github.com/amritansh005/Ai-Teacher/internal/config"
	"github.com/amritansh005/Ai-Teacher/internal/observability"
	"github.com/amritansh005/Ai-Teacher/internal/protocol"
	"github.com/amritansh005/Ai-Teacher/internal/session"
	"github.com/amritansh005/Ai-Teacher/internal/vad"
)

// Orchestrator wires the audio pipeline and turn coordinator together and
// hands the gateway one Conn per client connection.
type Orchestrator struct {
	cfg         config.Config
	sessions    *session.Manager
	coordinator *Coordinator
	transcriber Transcriber
	classifier  vad.Classifier
	metrics     *observability.Metrics
}

func NewOrchestrator(
	cfg config.Config,
	sessions *session.Manager,
	coordinator *Coordinator,
	transcriber Transcriber,
	classifier vad.Classifier,
	metrics *observability.Metrics,
) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		sessions:    sessions,
		coordinator: coordinator,
		transcriber: transcriber,
		classifier:  classifier,
		metrics:     metrics,
	}
}

func (o *Orchestrator) Sessions() *session.Manager { return o.sessions }
func (o *Orchestrator) Coordinator() *Coordinator  { return o.coordinator }
func (o *Orchestrator) Transcriber() Transcriber   { return o.transcriber }

// Conn is the per-connection session pipeline. Audio ingest and control
// messages are driven by the gateway's reader goroutine; turns execute on the
// connection's own worker so ingestion never waits on a running turn.
type Conn struct {
	o         *Orchestrator
	sessionID string
	emit      EmitFunc

	assembler *audio.WindowAssembler
	gate      *vad.Gate
	segmenter *Segmenter

	turnQueue chan func(ctx context.Context)

	mu         sync.Mutex
	turnCancel context.CancelFunc
	closed     bool

	workerDone chan struct{}
}

// StartSession registers the session and spins up its turn worker. The
// returned Conn must be closed when the connection ends.
func (o *Orchestrator) StartSession(sessionID string, emit EmitFunc) *Conn {
	s := o.sessions.Create(sessionID)
	o.metrics.ActiveSessions.Inc()
	o.metrics.SessionEvents.WithLabelValues("connected").Inc()

	c := &Conn{
		o:         o,
		sessionID: s.ID,
		emit:      emit,
		assembler: audio.NewWindowAssembler(o.cfg.VADWindowSamples),
		gate:      vad.NewGate(o.classifier, o.cfg.VADWindowSamples, o.cfg.VADThreshold),
		segmenter: NewSegmenter(o.cfg.WindowDuration(), o.cfg.SilenceTimeout, o.cfg.MinSpeechDuration),
		turnQueue: make(chan func(ctx context.Context), 8),

		workerDone: make(chan struct{}),
	}
	go c.turnWorker()

	emit(protocol.SystemEvent{
		Type:      protocol.TypeSystem,
		SessionID: s.ID,
		Message:   "connected",
	})
	return c
}

func (c *Conn) SessionID() string { return c.sessionID }

// HandleBinary ingests one raw PCM16LE audio frame. Malformed frames are
// reported and dropped; session state is unaffected.
func (c *Conn) HandleBinary(frame []byte) {
	samples, err := audio.DecodePCM16LE(frame)
	if err != nil {
		c.emit(protocol.ErrorEvent{
			Type:      protocol.TypeError,
			SessionID: c.sessionID,
			Code:      "bad_audio_frame",
			Source:    "client",
			Retryable: false,
			Detail:    err.Error(),
		})
		return
	}
	c.o.sessions.Touch(c.sessionID)

	ctx := context.Background()
	for _, window := range c.assembler.Push(samples) {
		speech := c.gate.IsSpeech(ctx, window)
		started, utterance := c.segmenter.Process(window, speech)
		if started {
			c.o.sessions.SetState(c.sessionID, session.StateListening)
			c.emit(protocol.StatusEvent{
				Type:      protocol.TypeStatus,
				SessionID: c.sessionID,
				Stage:     "listening",
				Message:   "Speech detected.",
			})
		}
		if utterance != nil {
			c.o.metrics.Utterances.Inc()
			c.enqueueUtteranceTurn(utterance)
		}
	}
}

// HandleText dispatches one client JSON control frame.
func (c *Conn) HandleText(raw []byte) {
	msg, err := protocol.ParseClientMessage(raw)
	if err != nil {
		c.emit(protocol.ErrorEvent{
			Type:      protocol.TypeError,
			SessionID: c.sessionID,
			Code:      "bad_message",
			Source:    "client",
			Retryable: false,
			Detail:    err.Error(),
		})
		return
	}
	c.o.sessions.Touch(c.sessionID)

	switch m := msg.(type) {
	case protocol.StartListening:
		c.enqueueCaptureTurn()
	case protocol.TextInput:
		c.enqueueTextTurn(m.Text)
	case protocol.Interrupt:
		c.handleInterrupt(m.Text)
	}
}

// handleInterrupt runs on the reader goroutine, concurrently with any
// in-flight turn: cancel the turn's context, then let the controller stop
// synthesis and record what was cut off.
func (c *Conn) handleInterrupt(text string) {
	c.mu.Lock()
	cancel := c.turnCancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	ctx, cancelCtx := context.WithTimeout(context.Background(), c.o.cfg.ShutdownTimeout)
	defer cancelCtx()

	_, err := c.o.coordinator.Interrupts().HandleInterruption(ctx, c.sessionID, text)
	c.o.metrics.Interruptions.Inc()
	c.o.metrics.SessionEvents.WithLabelValues("interrupted").Inc()

	ev := protocol.InterruptionHandledEvent{
		Type:      protocol.TypeInterruptionHandled,
		SessionID: c.sessionID,
		Success:   err == nil,
	}
	if err != nil {
		ev.Message = err.Error()
	}
	c.emit(ev)

	// A barge-in that carries text is also the next user input.
	if strings.TrimSpace(text) != "" {
		c.enqueueTextTurn(text)
	}
}

func (c *Conn) enqueueTextTurn(text string) {
	c.enqueue(func(ctx context.Context) {
		c.o.coordinator.RunTurn(ctx, c.sessionID, text, c.emit)
	})
}

func (c *Conn) enqueueUtteranceTurn(u *Utterance) {
	c.enqueue(func(ctx context.Context) {
		text, ok := c.transcribe(ctx, func(ctx context.Context) (Transcription, error) {
			return c.o.transcriber.TranscribeUtterance(ctx, u.Samples)
		})
		if ok {
			c.o.coordinator.RunTurn(ctx, c.sessionID, text, c.emit)
		}
	})
}

func (c *Conn) enqueueCaptureTurn() {
	c.enqueue(func(ctx context.Context) {
		c.emit(protocol.StatusEvent{
			Type:      protocol.TypeStatus,
			SessionID: c.sessionID,
			Stage:     "listening",
			Message:   "Listening...",
		})
		text, ok := c.transcribe(ctx, func(ctx context.Context) (Transcription, error) {
			return c.o.transcriber.Capture(ctx, c.o.cfg.CaptureSeconds)
		})
		if ok {
			c.o.coordinator.RunTurn(ctx, c.sessionID, text, c.emit)
		}
	})
}

// transcribe runs one transcription call and emits the surrounding events.
// Failures and empty results both mean "no speech detected", not an error.
func (c *Conn) transcribe(ctx context.Context, call func(ctx context.Context) (Transcription, error)) (string, bool) {
	c.emit(protocol.StatusEvent{
		Type:      protocol.TypeStatus,
		SessionID: c.sessionID,
		Stage:     "transcribing",
		Message:   "Transcribing...",
	})

	tr, err := call(ctx)
	if err != nil {
		c.o.metrics.ProviderErrors.WithLabelValues("asr", "transcribe").Inc()
	}
	if err != nil || strings.TrimSpace(tr.Text) == "" {
		c.emit(protocol.StatusEvent{
			Type:      protocol.TypeStatus,
			SessionID: c.sessionID,
			Stage:     "transcribing",
			Message:   "No speech detected.",
		})
		return "", false
	}

	c.emit(protocol.TranscriptionEvent{
		Type:       protocol.TypeTranscription,
		SessionID:  c.sessionID,
		Text:       tr.Text,
		Confidence: tr.Confidence,
	})
	return tr.Text, true
}

func (c *Conn) enqueue(run func(ctx context.Context)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	var queued bool
	select {
	case c.turnQueue <- run:
		queued = true
	default:
	}
	c.mu.Unlock()

	if !queued {
		c.emit(protocol.ErrorEvent{
			Type:      protocol.TypeError,
			SessionID: c.sessionID,
			Code:      "turn_queue_full",
			Source:    "gateway",
			Retryable: true,
			Detail:    "too many pending turns",
		})
	}
}

// turnWorker serializes turns for the session. The active turn's cancel func
// is published so an interruption can cut synthesis short.
func (c *Conn) turnWorker() {
	defer close(c.workerDone)
	for run := range c.turnQueue {
		ctx, cancel := context.WithCancel(context.Background())

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			cancel()
			return
		}
		c.turnCancel = cancel
		c.mu.Unlock()

		run(ctx)

		c.mu.Lock()
		if c.turnCancel != nil {
			c.turnCancel = nil
		}
		c.mu.Unlock()
		cancel()
	}
}

// Close tears the session down: cancel any in-flight turn, release ingest
// buffers, clear interruption state, and drop the session from the registry.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.turnCancel
	c.turnCancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	close(c.turnQueue)
	<-c.workerDone

	c.assembler.Reset()
	c.segmenter.Reset()
	c.o.coordinator.Interrupts().ClearSession(c.sessionID)
	c.o.sessions.Remove(c.sessionID)
	c.o.metrics.ActiveSessions.Dec()
	c.o.metrics.SessionEvents.WithLabelValues("disconnected").Inc()
}
