// Package hub relays messages between connected agents and serves the
// registration and health surface.
package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
	"github.com/xiaot623/gogo/ecosystem/internal/protocol"
)

// Registrar is the registry surface the hub drives.
type Registrar interface {
	Register(name string) domain.RegistrationAck
	RegisteredCount() int
}

// Admitter decides whether a registration name is acceptable.
type Admitter interface {
	Admit(ctx context.Context, name string) (allowed bool, reason string, err error)
}

// RevenueSink receives revenue claims parsed from relayed messages.
type RevenueSink interface {
	RecordRevenue(agent string, amount float64) error
}

// Mirror receives a copy of every relayed envelope.
type Mirror interface {
	Publish(env *protocol.Envelope) error
}

// Recorder collects hub metrics.
type Recorder interface {
	MessageRelayed(msgType string)
	MessageDropped(reason string)
	DeliveryDropped()
	PeersConnected(n int)
	Registration(outcome string)
}

// Options configures a Hub. Only Logger is required.
type Options struct {
	MessageLogSize int
	SendBuffer     int
	Admission      Admitter
	Revenue        RevenueSink
	Mirror         Mirror
	Recorder       Recorder
	Logger         *slog.Logger
}

// Health is the response of the health query.
type Health struct {
	Status        string  `json:"status"`
	Agents        int     `json:"agents"`
	Peers         int     `json:"peers"`
	Messages      uint64  `json:"messages"`
	Retained      int     `json:"retained"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type relayRequest struct {
	from *Peer
	data []byte
}

// Hub tracks relay peers and fans messages out to them. Broadcast is
// best-effort and at-most-once per recipient: a peer whose send buffer is
// full misses the message, with no queuing or replay. The sender never
// receives its own message.
type Hub struct {
	peers map[string]*Peer

	register   chan *Peer
	unregister chan *Peer
	relay      chan relayRequest

	registrar  Registrar
	admission  Admitter
	revenue    RevenueSink
	mirror     Mirror
	recorder   Recorder
	messages   *MessageLog
	sendBuffer int

	seq       atomic.Uint64
	accepting atomic.Bool
	startedAt time.Time
	done      chan struct{}
	now       func() time.Time

	log *slog.Logger
	mu  sync.RWMutex
}

// NewHub creates a new Hub. It does not accept registrations or
// connections until Open is called.
func NewHub(registrar Registrar, opts Options) (*Hub, error) {
	messages, err := NewMessageLog(opts.MessageLogSize)
	if err != nil {
		return nil, err
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Hub{
		peers:      make(map[string]*Peer),
		register:   make(chan *Peer),
		unregister: make(chan *Peer),
		relay:      make(chan relayRequest, 256),
		registrar:  registrar,
		admission:  opts.Admission,
		revenue:    opts.Revenue,
		mirror:     opts.Mirror,
		recorder:   opts.Recorder,
		messages:   messages,
		sendBuffer: opts.SendBuffer,
		startedAt:  time.Now(),
		done:       make(chan struct{}),
		now:        time.Now,
		log:        opts.Logger.With("component", "hub"),
	}, nil
}

// Open marks the hub as listening.
func (h *Hub) Open() {
	h.accepting.Store(true)
}

// Close stops accepting registrations and new connections. Peers already
// connected keep relaying until Run returns.
func (h *Hub) Close() {
	h.accepting.Store(false)
}

// Accepting reports whether the hub takes registrations and connections.
func (h *Hub) Accepting() bool {
	return h.accepting.Load()
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run starts the hub's main loop and blocks until ctx is cancelled. On exit
// every peer's send channel is closed so its writer can say goodbye.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.Close()
			h.mu.Lock()
			for id, p := range h.peers {
				delete(h.peers, id)
				close(p.Send)
			}
			h.mu.Unlock()
			h.recorder.PeersConnected(0)
			h.log.Info("hub stopped")
			return

		case p := <-h.register:
			h.mu.Lock()
			h.peers[p.ID] = p
			n := len(h.peers)
			h.mu.Unlock()
			h.recorder.PeersConnected(n)
			h.log.Debug("peer connected", "peer", p.ID, "peers", n)

		case p := <-h.unregister:
			h.mu.Lock()
			_, ok := h.peers[p.ID]
			if ok {
				delete(h.peers, p.ID)
				close(p.Send)
			}
			n := len(h.peers)
			h.mu.Unlock()
			if ok {
				h.recorder.PeersConnected(n)
				h.log.Debug("peer disconnected", "peer", p.ID, "peers", n)
			}

		case msg := <-h.relay:
			h.broadcast(msg)
		}
	}
}

func (h *Hub) broadcast(msg relayRequest) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, p := range h.peers {
		if p == msg.from {
			continue
		}
		select {
		case p.Send <- msg.data:
		default:
			h.recorder.DeliveryDropped()
			h.log.Debug("peer send buffer full, message dropped", "peer", id)
		}
	}
}

// Attach starts tracking a peer.
func (h *Hub) Attach(p *Peer) error {
	if !h.Accepting() {
		return domain.ErrHubUnavailable
	}
	select {
	case h.register <- p:
		return nil
	case <-h.done:
		return domain.ErrHubUnavailable
	}
}

// Detach stops tracking a peer and closes its send channel.
func (h *Hub) Detach(p *Peer) {
	select {
	case h.unregister <- p:
	case <-h.done:
	}
}

// Receive handles one inbound payload from a peer: stamp, log, relay to the
// other peers, then forward revenue claims. Malformed payloads are dropped
// and reported with domain.ErrMalformedMessage; the peer stays connected.
func (h *Hub) Receive(from *Peer, data []byte) error {
	env, err := protocol.Decode(data, h.now())
	if err != nil {
		h.recorder.MessageDropped("malformed")
		h.log.Warn("dropping malformed relay payload", "peer", from.ID, "error", err)
		return err
	}
	env.Seq = h.seq.Add(1)
	env.PeerID = from.ID
	h.messages.Append(env)

	select {
	case h.relay <- relayRequest{from: from, data: env.Raw}:
	case <-h.done:
		return domain.ErrHubUnavailable
	}
	h.recorder.MessageRelayed(env.Type)

	if rev, ok := env.Revenue(); ok && h.revenue != nil {
		if err := h.revenue.RecordRevenue(rev.Agent, rev.Amount); err != nil {
			h.log.Warn("revenue claim rejected", "agent", rev.Agent, "amount", rev.Amount, "error", err)
		}
	}
	if h.mirror != nil {
		if err := h.mirror.Publish(env); err != nil {
			h.log.Warn("mirror publish failed", "seq", env.Seq, "error", err)
		}
	}
	return nil
}

// Register admits and records an agent registration. Safe for concurrent
// use with the same name.
func (h *Hub) Register(ctx context.Context, name string) (domain.RegistrationAck, error) {
	if !h.Accepting() {
		h.recorder.Registration("unavailable")
		return domain.RegistrationAck{}, domain.ErrHubUnavailable
	}
	if h.admission != nil {
		allowed, reason, err := h.admission.Admit(ctx, name)
		if err != nil {
			h.log.Warn("admission policy failed, admitting", "agent", name, "error", err)
		} else if !allowed {
			h.recorder.Registration("rejected")
			h.log.Warn("registration rejected", "agent", name, "reason", reason)
			return domain.RegistrationAck{}, fmt.Errorf("%w: %s", domain.ErrRegistrationRejected, reason)
		}
	}
	ack := h.registrar.Register(name)
	h.recorder.Registration("accepted")
	return ack, nil
}

// Health returns counters without side effects.
func (h *Hub) Health() Health {
	status := "active"
	if !h.Accepting() {
		status = "unavailable"
	}
	return Health{
		Status:        status,
		Agents:        h.registrar.RegisteredCount(),
		Peers:         h.PeerCount(),
		Messages:      h.seq.Load(),
		Retained:      h.messages.Len(),
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
	}
}

// PeerCount returns the number of connected peers.
func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// RecentMessages returns up to n logged envelopes, oldest first.
func (h *Hub) RecentMessages(n int) []*protocol.Envelope {
	return h.messages.Recent(n)
}

type nopRecorder struct{}

func (nopRecorder) MessageRelayed(string) {}
func (nopRecorder) MessageDropped(string) {}
func (nopRecorder) DeliveryDropped()      {}
func (nopRecorder) PeersConnected(int)    {}
func (nopRecorder) Registration(string)   {}
