package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	// Client-originated.
	TypeStartListening MessageType = "start_listening"
	TypeInterrupt      MessageType = "interrupt"
	TypeTextInput      MessageType = "text_input"

	// Server-originated.
	TypeSystem                MessageType = "system"
	TypeStatus                MessageType = "status"
	TypeTranscription         MessageType = "transcription"
	TypeAIResponse            MessageType = "ai_response"
	TypeTTSComplete           MessageType = "tts_complete"
	TypeTTSError              MessageType = "tts_error"
	TypeInterruptionHandled   MessageType = "interruption_handled"
	TypeContinuationAvailable MessageType = "continuation_available"
	TypeError                 MessageType = "error"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// StartListening asks the service to run one capture-and-transcribe cycle.
type StartListening struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
}

// Interrupt signals a barge-in while synthesized speech is playing. Text is
// the user's interrupting utterance and may be empty.
type Interrupt struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Text      string      `json:"text"`
}

// TextInput carries typed user input that bypasses transcription.
type TextInput struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Text      string      `json:"text"`
}

type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Message   string      `json:"message"`
}

type StatusEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Stage     string      `json:"stage,omitempty"`
	Message   string      `json:"message"`
}

type TranscriptionEvent struct {
	Type       MessageType `json:"type"`
	SessionID  string      `json:"session_id"`
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
}

type AIResponseEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
	Emotion   string      `json:"emotion"`
}

type TTSCompleteEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Success   bool        `json:"success"`
	AudioURL  string      `json:"audio_url,omitempty"`
	Duration  float64     `json:"duration"`
}

type TTSErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable"`
}

type InterruptionHandledEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
}

type ContinuationAvailableEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage decodes a client JSON text frame into a typed message.
// Binary audio frames are handled separately by the gateway and never reach
// this parser.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeStartListening:
		var msg StartListening
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeInterrupt:
		var msg Interrupt
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeTextInput:
		var msg TextInput
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, errors.New("invalid text_input: empty text")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// MessageTypeOf reports the declared type of an outbound or parsed message.
func MessageTypeOf(v any) (MessageType, bool) {
	switch m := v.(type) {
	case StartListening:
		return m.Type, true
	case Interrupt:
		return m.Type, true
	case TextInput:
		return m.Type, true
	case SystemEvent:
		return m.Type, true
	case StatusEvent:
		return m.Type, true
	case TranscriptionEvent:
		return m.Type, true
	case AIResponseEvent:
		return m.Type, true
	case TTSCompleteEvent:
		return m.Type, true
	case TTSErrorEvent:
		return m.Type, true
	case InterruptionHandledEvent:
		return m.Type, true
	case ContinuationAvailableEvent:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
