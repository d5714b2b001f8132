package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Peer is one live relay connection. Peers are anonymous: the transport does
// not require the agent to have registered first.
type Peer struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan []byte
	ConnectedAt time.Time
	mu          sync.Mutex
}

// NewPeer wraps a websocket connection. The peer is not tracked until Attach.
func (h *Hub) NewPeer(ws *websocket.Conn) *Peer {
	return &Peer{
		ID:          uuid.New().String(),
		Conn:        ws,
		Send:        make(chan []byte, h.sendBuffer),
		ConnectedAt: time.Now(),
	}
}

// WriteMessage writes a message to the connection with proper locking.
func (p *Peer) WriteMessage(messageType int, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (p *Peer) SetWriteDeadline(t time.Time) error {
	return p.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (p *Peer) SetReadDeadline(t time.Time) error {
	return p.Conn.SetReadDeadline(t)
}

// Close closes the connection.
func (p *Peer) Close() error {
	return p.Conn.Close()
}
