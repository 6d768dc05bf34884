package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

const wsWriteTimeout = 5 * time.Second

// wsMessage frames one stream event for websocket clients.
type wsMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SubscribeWebSocket handles GET /wizards/{id}/ws. It carries the same events as the
// SSE stream for clients behind proxies that buffer text/event-stream.
func (s *Server) SubscribeWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if _, err := s.Service.Get(r.Context(), sessionID); err != nil {
		s.fail(w, "SubscribeWebSocket", err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Warn("WebSocket: Upgrade failed", "session_id", sessionID, "err", err)
		return
	}
	defer conn.CloseNow()

	// Inbound messages are not part of the protocol; CloseRead handles pings and close frames.
	ctx := conn.CloseRead(r.Context())

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Info("WebSocket: Subscribing to Session Updates", "session_id", sessionID)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(wsMessage{Event: ev.Name, Data: json.RawMessage(ev.Data)})
			if err != nil {
				s.logger.Error("WebSocket: Encode failed", "err", err)
				continue
			}
			if err := write(ctx, conn, data); err != nil {
				s.logger.Info("WebSocket Client Disconnected", "session_id", sessionID, "err", err)
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
