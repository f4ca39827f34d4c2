package http

import (
	"net/http"
	"sync/atomic"
	"time"

	"dineadmin/internal/log"
	"dineadmin/internal/realtime"

	"github.com/gorilla/websocket"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
)

// The default origin check applies: the Origin host must equal Host, so a
// session cookie cannot be replayed from another site.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleLive upgrades to a websocket and pushes every hub event as JSON
// until the client goes away or the server shuts down. Clients refetch the
// tabs an event touches.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		log.FromContext(r.Context()).WarnContext(r.Context(), "Live upgrade failed", log.FieldError, err)
		return
	}
	defer conn.Close()

	events, cancel := s.hub.Subscribe()
	defer cancel()

	atomic.AddInt64(&s.metrics.liveClients, 1)
	defer atomic.AddInt64(&s.metrics.liveClients, -1)

	logger := log.FromContext(r.Context())
	logger.DebugContext(r.Context(), "Live client connected", log.FieldSubscribers, s.hub.Subscribers())

	gone := make(chan struct{})
	go readLive(conn, gone)

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			logger.DebugContext(r.Context(), "Live client disconnected")
			return
		case <-s.stopCh:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(liveWriteWait))
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(liveMessage(ev)); err != nil {
				logger.DebugContext(r.Context(), "Live write failed", log.FieldError, err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLive drains client frames so pongs and close frames are processed.
// It closes gone when the connection fails.
func readLive(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

type liveEvent struct {
	Type  string `json:"type"`
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
}

func liveMessage(ev realtime.Event) liveEvent {
	typ := "change"
	if ev.Op == realtime.OpResync {
		typ = "resync"
	}
	return liveEvent{Type: typ, Table: ev.Table, Op: ev.Op, ID: ev.ID}
}
