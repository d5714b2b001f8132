// Package protocol defines the relay message protocol between agents and the hub.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

// Body is the decoded, typed content of a relayed message.
type Body interface {
	kind() string
}

// RevenueGenerated is an explicit revenue claim from an agent.
type RevenueGenerated struct {
	Agent  string  `json:"agent"`
	Amount float64 `json:"amount"`
}

// Generic is any typed message the hub relays without interpreting.
type Generic struct {
	Type   string
	Fields map[string]json.RawMessage
}

// Unknown is a well-formed object that carries no type tag.
type Unknown struct {
	Fields map[string]json.RawMessage
}

func (RevenueGenerated) kind() string { return string(domain.MessageTypeRevenueGenerated) }
func (g Generic) kind() string        { return g.Type }
func (Unknown) kind() string          { return "" }

// Envelope is an inbound message as received by the hub. Raw is relayed
// verbatim; ReceivedAt is assigned by the hub, never by the sender.
type Envelope struct {
	Seq        uint64          `json:"seq"`
	PeerID     string          `json:"peer_id"`
	Type       string          `json:"type"`
	Agent      string          `json:"agent,omitempty"`
	ReceivedAt time.Time       `json:"timestamp"`
	Raw        json.RawMessage `json:"payload"`
	Body       Body            `json:"-"`
}

// Revenue returns the revenue claim carried by the envelope, if any.
func (e *Envelope) Revenue() (RevenueGenerated, bool) {
	rev, ok := e.Body.(RevenueGenerated)
	return rev, ok
}

// Decode parses a relay payload. Anything that is not a JSON object, or whose
// type field is not a string, is rejected with domain.ErrMalformedMessage.
func Decode(data []byte, receivedAt time.Time) (*Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: payload is null", domain.ErrMalformedMessage)
	}

	env := &Envelope{
		ReceivedAt: receivedAt,
		Raw:        append(json.RawMessage(nil), data...),
	}

	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &env.Type); err != nil {
			return nil, fmt.Errorf("%w: type must be a string", domain.ErrMalformedMessage)
		}
	}
	if raw, ok := fields["agent"]; ok {
		// agent is optional; a non-string value is ignored rather than rejected
		_ = json.Unmarshal(raw, &env.Agent)
	}

	switch env.Type {
	case "":
		env.Body = Unknown{Fields: fields}
	case string(domain.MessageTypeRevenueGenerated):
		var amount float64
		raw, ok := fields["amount"]
		if ok && json.Unmarshal(raw, &amount) == nil {
			env.Body = RevenueGenerated{Agent: env.Agent, Amount: amount}
		} else {
			env.Body = Generic{Type: env.Type, Fields: fields}
		}
	default:
		env.Body = Generic{Type: env.Type, Fields: fields}
	}

	return env, nil
}

// NewRevenueGenerated encodes a revenue claim the way agents send it.
func NewRevenueGenerated(agent string, amount float64) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"type":   domain.MessageTypeRevenueGenerated,
		"agent":  agent,
		"amount": amount,
	})
}
