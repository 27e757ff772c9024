package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

// WSInbound is what the chat widget sends over the socket.
type WSInbound struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// WSOutbound is what we send back.
type WSOutbound struct {
	Type      string `json:"type"` // "message", "session", "pong", "error"
	Text      string `json:"text,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// HandleWebSocket upgrades to WebSocket and answers each message turn
// synchronously. Each connection is bound to one session id.
func (h *ChatHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *ChatHandler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	_ = websocket.JSON.Send(conn, WSOutbound{Type: "session", SessionID: sessionID})
	h.logger.Info("chat: websocket opened", "session_id", sessionID)

	for {
		var msg WSInbound
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("chat: websocket closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, WSOutbound{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		reply := h.engine.ProcessMessage(r.Context(), sessionID, msg.Text)
		_ = websocket.JSON.Send(conn, WSOutbound{Type: "message", Text: reply, SessionID: sessionID})
	}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}
