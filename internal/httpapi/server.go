// Package httpapi is the service's outer surface: health, metrics, a REST
// chat mirror of the turn pipeline, and the realtime websocket gateway.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/amritansh005/Ai-Teacher/internal/config"
	"github.com/amritansh005/Ai-Teacher/internal/convo"
	"github.com/amritansh005/Ai-Teacher/internal/observability"
	"github.com/amritansh005/Ai-Teacher/internal/protocol"
	"github.com/amritansh005/Ai-Teacher/internal/session"
	"github.com/amritansh005/Ai-Teacher/internal/voice"
)

type Server struct {
	cfg          config.Config
	sessions     *session.Manager
	orchestrator *voice.Orchestrator
	store        convo.Store
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Manager, orchestrator *voice.Orchestrator, store convo.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:          cfg,
		sessions:     sessions,
		orchestrator: orchestrator,
		store:        store,
		metrics:      metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections unless explicitly
				// opened up; other websites must not drive a mic session.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/sessions/{id}/history", s.handleHistory)
	r.Delete("/v1/sessions/{id}", s.handleDeleteSession)
	r.Get("/v1/voice/ws", s.handleWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": s.sessions.ActiveCount(),
	})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type chatResponse struct {
	SessionID string  `json:"session_id"`
	Response  string  `json:"response"`
	Emotion   string  `json:"emotion"`
	TTS       *ttsOut `json:"tts,omitempty"`

	ContinuationAvailable bool   `json:"continuation_available"`
	ContinuationText      string `json:"continuation_text,omitempty"`
}

type ttsOut struct {
	Success  bool    `json:"success"`
	AudioURL string  `json:"audio_url,omitempty"`
	Duration float64 `json:"duration"`
	Error    string  `json:"error,omitempty"`
}

// handleChat mirrors one websocket turn synchronously. With
// ?stream_audio=true the synthesized audio bytes are streamed back directly
// instead of the JSON turn summary.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	sess := s.sessions.Create(strings.TrimSpace(req.SessionID))
	coordinator := s.orchestrator.Coordinator()
	discard := func(any) {}

	if parseBool(r.URL.Query().Get("stream_audio")) {
		res := coordinator.RunTurnWithoutSynthesis(r.Context(), sess.ID, req.Text, discard)
		stream, err := coordinator.Synthesizer().SynthesizeStream(r.Context(), sess.ID, res.ResponseText, res.Emotion)
		if err != nil {
			s.metrics.ProviderErrors.WithLabelValues("tts", "stream").Inc()
			respondError(w, http.StatusBadGateway, "synthesis_failed", err.Error())
			return
		}
		defer stream.Close()
		w.Header().Set("Content-Type", "audio/wav")
		w.Header().Set("X-Session-Id", sess.ID)
		w.WriteHeader(http.StatusOK)
		io.Copy(w, stream)
		return
	}

	res := coordinator.RunTurn(r.Context(), sess.ID, req.Text, discard)
	out := chatResponse{
		SessionID:             sess.ID,
		Response:              res.ResponseText,
		Emotion:               res.Emotion,
		ContinuationAvailable: res.Continuation.Offer,
		ContinuationText:      res.Continuation.InterruptedText,
	}
	if res.SynthesisErr != nil {
		// The text response is still usable; clients distinguish a failed
		// synthesis from a skipped one by the explicit error.
		out.TTS = &ttsOut{Error: res.SynthesisErr.Error()}
	} else {
		out.TTS = &ttsOut{
			Success:  res.Synthesis.Success,
			AudioURL: res.Synthesis.AudioURL,
			Duration: res.Synthesis.Duration.Seconds(),
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}
	entries, err := s.store.History(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"entries":    entries,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	s.orchestrator.Coordinator().Interrupts().ClearSession(id)
	if err := s.store.Clear(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "clear_failed", err.Error())
		return
	}
	if _, err := s.sessions.Remove(id); err != nil && !errors.Is(err, session.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "remove_failed", err.Error())
		return
	}
	s.metrics.SessionEvents.WithLabelValues("deleted").Inc()
	respondJSON(w, http.StatusOK, map[string]any{"session_id": id, "deleted": true})
}

// handleWS upgrades the connection and runs the session: binary frames are
// raw PCM16LE audio, text frames are JSON control messages, and all server
// events leave through a single writer goroutine.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer wsConn.Close()

	outbound := make(chan any, 256)
	emit := func(v any) {
		select {
		case outbound <- v:
		default:
			// Keep websocket writes single-threaded; drop when saturated.
			if mt, ok := protocol.MessageTypeOf(v); ok {
				s.metrics.WSMessages.WithLabelValues("dropped", string(mt)).Inc()
			}
		}
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	conn := s.orchestrator.StartSession(sessionID, emit)
	defer conn.Close()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range outbound {
			_ = wsConn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wsConn.WriteJSON(msg); err != nil {
				return
			}
			if mt, ok := protocol.MessageTypeOf(msg); ok {
				s.metrics.WSMessages.WithLabelValues("outbound", string(mt)).Inc()
			}
		}
	}()

	wsConn.SetReadLimit(4 << 20)
	_ = wsConn.SetReadDeadline(time.Now().Add(120 * time.Second))
	wsConn.SetPongHandler(func(string) error {
		_ = wsConn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := wsConn.ReadMessage()
		if err != nil {
			break
		}
		_ = wsConn.SetReadDeadline(time.Now().Add(120 * time.Second))
		switch msgType {
		case websocket.BinaryMessage:
			s.metrics.WSMessages.WithLabelValues("inbound", "audio").Inc()
			conn.HandleBinary(data)
		case websocket.TextMessage:
			s.metrics.WSMessages.WithLabelValues("inbound", "control").Inc()
			conn.HandleText(data)
		}
	}

	conn.Close()
	close(outbound)
	<-writerDone
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}
