package agentclient

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/xiaot623/gogo/ecosystem/internal/protocol"
)

// Stream is an open relay connection.
type Stream struct {
	conn     *websocket.Conn
	incoming chan []byte
	writeMu  sync.Mutex
	done     chan struct{}
	once     sync.Once
	err      error
}

// Connect opens a relay stream to the hub root.
func (c *Client) Connect(ctx context.Context) (*Stream, error) {
	addr := "ws" + strings.TrimPrefix(c.hubURL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	s := &Stream{
		conn:     conn,
		incoming: make(chan []byte, 64),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func (s *Stream) readLoop() {
	defer close(s.incoming)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.err = err
			return
		}
		select {
		case s.incoming <- data:
		case <-s.done:
			return
		}
	}
}

// Messages yields relayed payloads until the stream ends.
func (s *Stream) Messages() <-chan []byte {
	return s.incoming
}

// Err is the error that ended the read loop. Valid after Messages is closed.
func (s *Stream) Err() error {
	return s.err
}

// Send writes one raw payload.
func (s *Stream) Send(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// SendRevenue emits a revenue_generated claim.
func (s *Stream) SendRevenue(agent string, amount float64) error {
	data, err := protocol.NewRevenueGenerated(agent, amount)
	if err != nil {
		return err
	}
	return s.Send(data)
}

// Close says goodbye and closes the connection.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		s.writeMu.Lock()
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}
