package interrupt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/amritansh005/Ai-Teacher/internal/convo"
)

type fakeSpeech struct {
	currentText string
	stopErr     error
	statusErr   error
	stopped     []string
}

func (f *fakeSpeech) Stop(_ context.Context, sessionID string) error {
	f.stopped = append(f.stopped, sessionID)
	return f.stopErr
}

func (f *fakeSpeech) Status(context.Context, string) (string, bool, error) {
	if f.statusErr != nil {
		return "", false, f.statusErr
	}
	return f.currentText, true, nil
}

// statefulSpeech clears its status once stopped, like a real synthesis
// collaborator does.
type statefulSpeech struct {
	currentText string
}

func (f *statefulSpeech) Stop(context.Context, string) error {
	f.currentText = ""
	return nil
}

func (f *statefulSpeech) Status(context.Context, string) (string, bool, error) {
	return f.currentText, f.currentText != "", nil
}

type fakeRegistry struct {
	interrupted []string
}

func (f *fakeRegistry) Interrupt(sessionID string) error {
	f.interrupted = append(f.interrupted, sessionID)
	return nil
}

func TestHandleInterruptionRecordsAndMarks(t *testing.T) {
	speech := &fakeSpeech{currentText: "the moon orbits the earth"}
	reg := &fakeRegistry{}
	store := convo.NewInMemoryStore()
	c := NewController(speech, reg, store, 50)

	rec, err := c.HandleInterruption(context.Background(), "s1", "wait, stop")
	if err != nil {
		t.Fatalf("HandleInterruption: %v", err)
	}
	if rec.InterruptedText != "the moon orbits the earth" {
		t.Fatalf("interrupted text = %q", rec.InterruptedText)
	}
	if rec.Reason != "wait, stop" {
		t.Fatalf("reason = %q", rec.Reason)
	}
	if len(speech.stopped) != 1 || speech.stopped[0] != "s1" {
		t.Fatalf("stop calls = %v", speech.stopped)
	}
	if len(reg.interrupted) != 1 {
		t.Fatalf("registry interrupts = %v", reg.interrupted)
	}

	history, err := store.History(context.Background(), "s1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Role != convo.RoleInterruption || history[0].Content != "wait, stop" {
		t.Fatalf("history = %+v", history)
	}
}

func TestHandleInterruptionCapturesTextBeforeStop(t *testing.T) {
	speech := &statefulSpeech{currentText: strings.Repeat("the mitochondria is ", 4)}
	c := NewController(speech, &fakeRegistry{}, convo.NewInMemoryStore(), 50)

	rec, err := c.HandleInterruption(context.Background(), "s1", "stop")
	if err != nil {
		t.Fatalf("HandleInterruption: %v", err)
	}
	if rec.InterruptedText == "" {
		t.Fatal("interrupted text lost: status must be read before stop")
	}
	if cont := c.CheckContinuationNeeded("s1"); !cont.Offer {
		t.Fatal("expected continuation offer for long interrupted text")
	}
}

func TestHandleInterruptionToleratesSpeechFailure(t *testing.T) {
	speech := &fakeSpeech{stopErr: errors.New("tts down"), statusErr: errors.New("tts down")}
	c := NewController(speech, &fakeRegistry{}, convo.NewInMemoryStore(), 50)

	rec, err := c.HandleInterruption(context.Background(), "s1", "stop")
	if err == nil {
		t.Fatal("expected reported error from failing speech controller")
	}
	if rec.InterruptedText != "" {
		t.Fatalf("interrupted text = %q, want empty", rec.InterruptedText)
	}
	// The record is still stored; the interruption counts as handled.
	if _, ok := c.PendingRecord("s1"); !ok {
		t.Fatal("record not stored despite handled interruption")
	}
}

func TestCheckContinuationLongTextOffersAndRetains(t *testing.T) {
	speech := &fakeSpeech{currentText: strings.Repeat("x", 60)}
	c := NewController(speech, &fakeRegistry{}, convo.NewInMemoryStore(), 50)
	if _, err := c.HandleInterruption(context.Background(), "s1", "hold on"); err != nil {
		t.Fatalf("HandleInterruption: %v", err)
	}

	cont := c.CheckContinuationNeeded("s1")
	if !cont.Offer {
		t.Fatal("expected continuation offer for 60-char interruption")
	}
	if len(cont.InterruptedText) != 60 {
		t.Fatalf("interrupted text length = %d", len(cont.InterruptedText))
	}
	// Record is retained until explicitly cleared.
	if again := c.CheckContinuationNeeded("s1"); !again.Offer {
		t.Fatal("record was dropped before ClearSession")
	}

	c.ClearSession("s1")
	if after := c.CheckContinuationNeeded("s1"); after.Offer {
		t.Fatal("continuation offered after ClearSession")
	}
}

func TestCheckContinuationShortTextClears(t *testing.T) {
	speech := &fakeSpeech{currentText: strings.Repeat("x", 30)}
	c := NewController(speech, &fakeRegistry{}, convo.NewInMemoryStore(), 50)
	if _, err := c.HandleInterruption(context.Background(), "s1", "stop"); err != nil {
		t.Fatalf("HandleInterruption: %v", err)
	}

	if cont := c.CheckContinuationNeeded("s1"); cont.Offer {
		t.Fatal("continuation offered for 30-char fragment")
	}
	if _, ok := c.PendingRecord("s1"); ok {
		t.Fatal("short-fragment record not cleared")
	}
}

func TestCheckContinuationNoRecord(t *testing.T) {
	c := NewController(&fakeSpeech{}, &fakeRegistry{}, convo.NewInMemoryStore(), 50)
	if cont := c.CheckContinuationNeeded("missing"); cont.Offer {
		t.Fatal("continuation offered with no record")
	}
	// ClearSession on a session with no record is a no-op.
	c.ClearSession("missing")
}
