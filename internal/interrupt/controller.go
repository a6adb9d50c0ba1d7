// Package interrupt tracks barge-in events and decides whether an interrupted
// explanation should later be offered as a continuation.
package interrupt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amritansh005/Ai-Teacher/internal/convo"
)

// SpeechController is the slice of the synthesis collaborator the controller
// needs: cancel active playback and read back where it was.
type SpeechController interface {
	Stop(ctx context.Context, sessionID string) error
	Status(ctx context.Context, sessionID string) (currentText string, speaking bool, err error)
}

// Registry is the slice of the session registry the controller touches.
type Registry interface {
	Interrupt(sessionID string) error
}

// Record captures one handled barge-in.
type Record struct {
	InterruptedText string    `json:"interrupted_text"`
	Reason          string    `json:"reason"`
	At              time.Time `json:"at"`
}

// Continuation is the outcome of a continuation check.
type Continuation struct {
	Offer           bool
	InterruptedText string
}

// Controller is safe for concurrent use; interruption is the one operation
// allowed to run alongside an in-flight turn.
type Controller struct {
	speech   SpeechController
	registry Registry
	store    convo.Store
	minChars int

	mu      sync.Mutex
	records map[string]*Record
}

func NewController(speech SpeechController, registry Registry, store convo.Store, minChars int) *Controller {
	if minChars < 0 {
		minChars = 50
	}
	return &Controller{
		speech:   speech,
		registry: registry,
		store:    store,
		minChars: minChars,
		records:  make(map[string]*Record),
	}
}

// HandleInterruption records what was being spoken, cancels active synthesis
// for the session, and marks the barge-in in the conversation log. Status is
// read before Stop: synthesis collaborators clear their status once stopped.
// Failures of the downstream stop/status calls do not prevent the
// interruption from being considered handled; the record keeps whatever text
// was retrievable.
func (c *Controller) HandleInterruption(ctx context.Context, sessionID, reason string) (Record, error) {
	var firstErr error

	var interrupted string
	if text, _, err := c.speech.Status(ctx, sessionID); err == nil {
		interrupted = text
	} else {
		firstErr = fmt.Errorf("query synthesis status: %w", err)
	}

	if err := c.speech.Stop(ctx, sessionID); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("stop synthesis: %w", err)
	}

	rec := Record{
		InterruptedText: interrupted,
		Reason:          reason,
		At:              time.Now().UTC(),
	}

	c.mu.Lock()
	c.records[sessionID] = &rec
	c.mu.Unlock()

	if _, err := c.store.Append(ctx, sessionID, convo.RoleInterruption, reason); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("append interruption marker: %w", err)
	}
	if c.registry != nil {
		if err := c.registry.Interrupt(sessionID); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("mark session interrupted: %w", err)
		}
	}

	return rec, firstErr
}

// CheckContinuationNeeded reports whether the previously interrupted text is
// long enough to be worth resuming. Short fragments clear the record; long
// ones keep it until ClearSession.
func (c *Controller) CheckContinuationNeeded(sessionID string) Continuation {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[sessionID]
	if !ok {
		return Continuation{}
	}
	if len(rec.InterruptedText) > c.minChars {
		return Continuation{Offer: true, InterruptedText: rec.InterruptedText}
	}
	delete(c.records, sessionID)
	return Continuation{}
}

// ClearSession drops any interruption record for the session. Idempotent.
func (c *Controller) ClearSession(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, sessionID)
}

// PendingRecord returns the current record, if any.
func (c *Controller) PendingRecord(sessionID string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[sessionID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}
