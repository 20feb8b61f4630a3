package api

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zifox666/MoviePilot/pkg/bus"
	"github.com/zifox666/MoviePilot/pkg/logger"
	"github.com/zifox666/MoviePilot/pkg/onebot"
	"github.com/zifox666/MoviePilot/pkg/schemas"
)

const defaultSource = "onebot11"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The peer is a bot client, not a browser; Origin carries no signal
	// here and access is gated by the token check instead.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn adapts *websocket.Conn to onebot.Conn. Gorilla connections do
// not allow concurrent writers, so writes are serialized here; a write
// racing a replaced or closed connection fails with an error, which the
// delivery retry absorbs.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// handleWebSocket accepts the reverse connection from the bot client and
// runs its read loop. A new connection replaces the previous one
// unconditionally; reconnecting is the peer's recovery mechanism.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorCF("api", "WebSocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = defaultSource
	}

	wc := &wsConn{conn: conn}
	s.module.Registry().Register(wc)
	logger.InfoCF("api", "Bot client connected", map[string]interface{}{
		"source": source,
		"remote": r.RemoteAddr,
	})

	defer func() {
		s.module.Registry().Release(wc)
		conn.Close()
		logger.InfoCF("api", "Bot client disconnected", map[string]interface{}{
			"source": source,
		})
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WarnCF("api", "WebSocket read error", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}

		// One event is one unit of work: parse here, hand the result to
		// the pipeline through the bus so a slow consumer cannot stall
		// the read loop. A frame that fails to parse must never end it.
		msg, outcome := s.module.Parse(r.Context(), source, data)
		if outcome != onebot.OutcomeAccepted {
			logger.DebugCF("api", "Event dropped", map[string]interface{}{
				"outcome": outcome.String(),
			})
			continue
		}

		inbound := bus.InboundMessage{
			Channel:   schemas.ChannelOnebot11,
			Source:    msg.Source,
			UserID:    msg.UserID,
			Username:  msg.Username,
			Text:      msg.Text,
			MessageID: uuid.New().String(),
		}
		if err := s.messageBus.PublishInbound(r.Context(), inbound); err != nil {
			logger.WarnCF("api", "Inbound publish failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}
