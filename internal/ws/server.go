// Package ws serves the relay channel: one websocket per peer, relayed
// through the hub.
package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/ecosystem/internal/hub"
)

// Settings tunes the websocket pumps.
type Settings struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
}

func (s *Settings) withDefaults() {
	if s.PingInterval <= 0 {
		s.PingInterval = 30 * time.Second
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = 10 * time.Second
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = 60 * time.Second
	}
	if s.MaxMessageSize <= 0 {
		s.MaxMessageSize = 65536
	}
}

// Server handles relay websocket connections.
type Server struct {
	settings Settings
	hub      *hub.Hub
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewServer creates a new relay server.
func NewServer(settings Settings, h *hub.Hub, log *slog.Logger) *Server {
	settings.withDefaults()
	return &Server{
		settings: settings,
		hub:      h,
		log:      log.With("component", "relay"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// agents are local processes, no browser origin to check
				return true
			},
		},
	}
}

// HandleWebSocket handles the upgrade and the connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	if !s.hub.Accepting() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "hub unavailable"})
	}

	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return nil
	}

	peer := s.hub.NewPeer(ws)
	if err := s.hub.Attach(peer); err != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "hub unavailable"),
			time.Now().Add(time.Second))
		_ = ws.Close()
		return nil
	}

	// frames over the limit close the connection with 1009 and never reach the hub
	ws.SetReadLimit(s.settings.MaxMessageSize)

	go s.writePump(peer)
	go s.readPump(peer)

	return nil
}

// readPump reads messages from the websocket and hands them to the hub.
// Messages from one peer are relayed in the order they are read.
func (s *Server) readPump(peer *hub.Peer) {
	defer func() {
		s.hub.Detach(peer)
		peer.Close()
	}()

	peer.SetReadDeadline(time.Now().Add(s.settings.ReadTimeout))
	peer.Conn.SetPongHandler(func(string) error {
		peer.SetReadDeadline(time.Now().Add(s.settings.ReadTimeout))
		return nil
	})

	for {
		_, message, err := peer.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.log.Warn("websocket read error", "peer", peer.ID, "error", err)
			}
			return
		}

		// malformed payloads are already logged by the hub; the peer stays connected
		_ = s.hub.Receive(peer, message)
	}
}

// writePump writes relayed messages and keepalive pings to the websocket.
func (s *Server) writePump(peer *hub.Peer) {
	ticker := time.NewTicker(s.settings.PingInterval)
	defer func() {
		ticker.Stop()
		peer.Close()
	}()

	for {
		select {
		case message, ok := <-peer.Send:
			peer.SetWriteDeadline(time.Now().Add(s.settings.WriteTimeout))
			if !ok {
				// hub closed the channel
				peer.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub shutting down"))
				return
			}

			if err := peer.WriteMessage(websocket.TextMessage, message); err != nil {
				s.log.Debug("websocket write failed", "peer", peer.ID, "error", err)
				return
			}

		case <-ticker.C:
			peer.SetWriteDeadline(time.Now().Add(s.settings.WriteTimeout))
			if err := peer.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
