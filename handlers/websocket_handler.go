package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/Dosada05/gamejam/realtime"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts upgrades only from allowedOrigins. Requests
// without an Origin header (non-browser clients) are allowed.
func NewWebSocketHandler(hub *realtime.Hub, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// ServeWs joins the caller to their private room.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		slog.WarnContext(r.Context(), "websocket upgrade failed", slog.Int("user_id", actor.UserID), slog.String("error", err.Error()))
		return
	}
	h.hub.Attach(conn, realtime.UserRoom(actor.UserID))
}
