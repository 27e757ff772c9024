// Package handlers contains the HTTP surface for the booking assistant.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wolfman30/clinic-booking-agent/pkg/logging"
)

// MessageProcessor handles one chat turn. Implemented by the workflow
// engine; total, never returns an error.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, sessionID, message string) string
}

// ChatHandler exposes the conversational booking flow over HTTP.
type ChatHandler struct {
	engine   MessageProcessor
	mockMode bool
	logger   *logging.Logger
}

// NewChatHandler creates a chat handler. mockMode is only surfaced by the
// health endpoint.
func NewChatHandler(engine MessageProcessor, mockMode bool, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{engine: engine, mockMode: mockMode, logger: logger}
}

// ChatRequest is one inbound chat turn.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// HandleChat processes one message and returns the reply.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" || req.Message == "" {
		http.Error(w, "session_id and message are required", http.StatusBadRequest)
		return
	}

	reply := h.engine.ProcessMessage(r.Context(), req.SessionID, req.Message)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ChatResponse{Response: reply})
}

// HealthCheck reports liveness and whether the mock provider is active.
func (h *ChatHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	mode := "LIVE"
	if h.mockMode {
		mode = "MOCK"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "mode": mode})
}
