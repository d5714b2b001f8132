// Package bus mirrors relayed messages onto NATS subjects.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/xiaot623/gogo/ecosystem/internal/protocol"
)

// SubjectPrefix is prepended to the message type.
const SubjectPrefix = "ecosystem.messages."

// Mirror publishes every relayed envelope with core NATS. Publishing is
// buffered by the client, so it does not wait on the server.
type Mirror struct {
	nc  *nats.Conn
	log *slog.Logger
}

// Connect dials url and returns a mirror.
func Connect(ctx context.Context, url string, log *slog.Logger) (*Mirror, error) {
	log = log.With("component", "bus")
	opts := []nats.Option{
		nats.Name("ecosystem-hub"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Info("nats connected", "url", url)
	return &Mirror{nc: nc, log: log}, nil
}

// Subject returns the subject for a message type. Characters that are not
// valid inside a subject token are replaced with '_'.
func Subject(msgType string) string {
	if msgType == "" {
		return SubjectPrefix + "untyped"
	}
	token := strings.Map(func(r rune) rune {
		switch {
		case r == '.' || r == '*' || r == '>' || r <= ' ':
			return '_'
		default:
			return r
		}
	}, msgType)
	return SubjectPrefix + token
}

// Publish implements hub.Mirror.
func (m *Mirror) Publish(env *protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	subject := Subject(env.Type)
	if err := m.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe delivers mirrored envelopes matching subject to handler. It
// returns a function that removes the subscription.
func (m *Mirror) Subscribe(subject string, handler func(env protocol.Envelope)) (func(), error) {
	sub, err := m.nc.Subscribe(subject, func(msg *nats.Msg) {
		var env protocol.Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			m.log.Warn("undecodable mirrored message", "subject", msg.Subject, "error", err)
			return
		}
		handler(env)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Flush waits until buffered publishes reach the server.
func (m *Mirror) Flush(ctx context.Context) error {
	return m.nc.FlushWithContext(ctx)
}

// Close drains the connection.
func (m *Mirror) Close() error {
	if err := m.nc.Drain(); err != nil {
		m.nc.Close()
		return err
	}
	return nil
}
