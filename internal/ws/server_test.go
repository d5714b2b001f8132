package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
	"github.com/xiaot623/gogo/ecosystem/internal/hub"
	"github.com/xiaot623/gogo/ecosystem/internal/logger"
	"github.com/xiaot623/gogo/ecosystem/internal/registry"
)

type sumSink struct {
	mu    sync.Mutex
	total float64
}

func (s *sumSink) RecordRevenue(_ string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total += amount
	return nil
}

func (s *sumSink) value() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func newRelay(t *testing.T, sink hub.RevenueSink) (*hub.Hub, string) {
	t.Helper()
	return newRelayWith(t, sink, Settings{PingInterval: time.Second})
}

func newRelayWith(t *testing.T, sink hub.RevenueSink, settings Settings) (*hub.Hub, string) {
	t.Helper()
	reg := registry.New([]domain.Agent{{Name: "A", Capabilities: []string{"x"}}}, logger.Discard())
	h, err := hub.NewHub(reg, hub.Options{Revenue: sink, Logger: logger.Discard()})
	require.NoError(t, err)
	h.Open()

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	e := echo.New()
	srv := NewServer(settings, h, logger.Discard())
	e.GET("/ws", srv.HandleWebSocket)
	ts := httptest.NewServer(e)

	t.Cleanup(func() {
		cancel()
		<-h.Done()
		ts.Close()
	})
	return h, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWithin(conn *websocket.Conn, d time.Duration) (string, error) {
	conn.SetReadDeadline(time.Now().Add(d))
	_, data, err := conn.ReadMessage()
	return string(data), err
}

func TestRelayOverWebSocket(t *testing.T) {
	h, url := newRelay(t, nil)
	a, b, c := dial(t, url), dial(t, url), dial(t, url)
	require.Eventually(t, func() bool { return h.PeerCount() == 3 }, time.Second, 5*time.Millisecond)

	msg := `{"type":"chat","agent":"A","text":"hello"}`
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(msg)))

	got, err := readWithin(b, time.Second)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
	got, err = readWithin(c, time.Second)
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	_, err = readWithin(a, 100*time.Millisecond)
	assert.Error(t, err, "sender must not receive its own message")
}

func TestMalformedPayloadKeepsConnection(t *testing.T) {
	sink := &sumSink{}
	h, url := newRelay(t, sink)
	a, b := dial(t, url), dial(t, url)
	require.Eventually(t, func() bool { return h.PeerCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte{0xff, 0x00, 0x13}))
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"type":"revenue_generated","agent":"A","amount":500}`)))

	got, err := readWithin(b, time.Second)
	require.NoError(t, err)
	assert.Contains(t, got, "revenue_generated")
	assert.Equal(t, 500.0, sink.value())
	assert.Equal(t, 2, h.PeerCount())
}

func TestDisconnectDetachesPeer(t *testing.T) {
	h, url := newRelay(t, nil)
	a := dial(t, url)
	require.Eventually(t, func() bool { return h.PeerCount() == 1 }, time.Second, 5*time.Millisecond)

	a.Close()
	require.Eventually(t, func() bool { return h.PeerCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRejectsConnectionsWhenClosed(t *testing.T) {
	h, url := newRelay(t, nil)
	h.Close()

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestOversizedFrameClosesSenderOnly(t *testing.T) {
	h, url := newRelayWith(t, nil, Settings{PingInterval: time.Second, MaxMessageSize: 64})
	a, b := dial(t, url), dial(t, url)
	require.Eventually(t, func() bool { return h.PeerCount() == 2 }, time.Second, 5*time.Millisecond)

	big := `{"type":"status","note":"` + strings.Repeat("x", 128) + `"}`
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(big)))

	_, err := readWithin(a, time.Second)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "got %v", err)

	_, err = readWithin(b, 200*time.Millisecond)
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return h.PeerCount() == 1 }, time.Second, 5*time.Millisecond)
}
