package hub

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/xiaot623/gogo/ecosystem/internal/protocol"
)

// DefaultMessageLogSize bounds the in-memory message log when no size is configured.
const DefaultMessageLogSize = 1000

// MessageLog keeps the most recent relayed envelopes. Keys are sequence
// numbers that are never reused, so LRU eviction is oldest-first.
type MessageLog struct {
	cache *lru.Cache
}

// NewMessageLog creates a log holding at most size envelopes.
func NewMessageLog(size int) (*MessageLog, error) {
	if size <= 0 {
		size = DefaultMessageLogSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create message log: %w", err)
	}
	return &MessageLog{cache: cache}, nil
}

// Append stores env under its sequence number.
func (l *MessageLog) Append(env *protocol.Envelope) {
	l.cache.Add(env.Seq, env)
}

// Len returns the number of retained envelopes.
func (l *MessageLog) Len() int {
	return l.cache.Len()
}

// Recent returns up to n envelopes, oldest first.
func (l *MessageLog) Recent(n int) []*protocol.Envelope {
	keys := l.cache.Keys()
	if n > 0 && len(keys) > n {
		keys = keys[len(keys)-n:]
	}
	out := make([]*protocol.Envelope, 0, len(keys))
	for _, k := range keys {
		if v, ok := l.cache.Peek(k); ok {
			out = append(out, v.(*protocol.Envelope))
		}
	}
	return out
}
