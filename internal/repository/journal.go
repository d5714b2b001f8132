package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

// AgentWriter is the persistence the journal needs.
type AgentWriter interface {
	UpsertAgent(ctx context.Context, agent domain.Agent) error
}

// Journal writes agent changes to the store from its own goroutine so that
// registrations never wait on disk. When the queue is full the change is
// dropped and logged; the next change of the same agent supersedes it.
type Journal struct {
	store   AgentWriter
	queue   chan domain.Agent
	timeout time.Duration
	log     *slog.Logger
}

// NewJournal creates a journal with a queue of size entries.
func NewJournal(store AgentWriter, size int, log *slog.Logger) *Journal {
	if size <= 0 {
		size = 256
	}
	return &Journal{
		store:   store,
		queue:   make(chan domain.Agent, size),
		timeout: 2 * time.Second,
		log:     log.With("component", "journal"),
	}
}

// AgentChanged implements registry.Listener.
func (j *Journal) AgentChanged(agent domain.Agent) {
	select {
	case j.queue <- agent:
	default:
		j.log.Warn("journal queue full, dropping agent change", "agent", agent.Name, "status", agent.Status)
	}
}

// Run drains the queue until ctx is done, then flushes what is left.
func (j *Journal) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			j.flush()
			return nil
		case agent := <-j.queue:
			j.write(context.Background(), agent)
		}
	}
}

func (j *Journal) flush() {
	for {
		select {
		case agent := <-j.queue:
			j.write(context.Background(), agent)
		default:
			return
		}
	}
}

func (j *Journal) write(ctx context.Context, agent domain.Agent) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	if err := j.store.UpsertAgent(ctx, agent); err != nil {
		j.log.Warn("failed to journal agent change", "agent", agent.Name, "error", err)
	}
}
