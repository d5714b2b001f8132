// Package registry holds the configured agents and their liveness state.
package registry

import (
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

// DefaultNameLimit bounds how many unconfigured registration names are
// remembered. Configured agents carry their own registered flag.
const DefaultNameLimit = 4096

// Listener is notified of every registration or status change, in mutation
// order. It is called with the registry lock held, so implementations must
// not block or call back into the registry.
type Listener interface {
	AgentChanged(agent domain.Agent)
}

// Registry is the single owner of the agent set. Iteration always follows
// configuration order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	agents  map[string]*domain.Agent
	unknown *lru.Cache // unconfigured name -> last seen

	listeners []Listener
	log       *slog.Logger
	now       func() time.Time
}

// New creates a registry seeded with the configured agents. Duplicate names
// keep the first entry.
func New(agents []domain.Agent, log *slog.Logger) *Registry {
	return newRegistry(agents, DefaultNameLimit, log)
}

func newRegistry(agents []domain.Agent, nameLimit int, log *slog.Logger) *Registry {
	if nameLimit <= 0 {
		nameLimit = DefaultNameLimit
	}
	// lru.New only fails on a non-positive size
	unknown, _ := lru.New(nameLimit)
	r := &Registry{
		agents:  make(map[string]*domain.Agent, len(agents)),
		unknown: unknown,
		log:     log.With("component", "registry"),
		now:     time.Now,
	}
	for _, a := range agents {
		if _, dup := r.agents[a.Name]; dup {
			r.log.Warn("duplicate agent in roster ignored", "agent", a.Name)
			continue
		}
		agent := a.Clone()
		if agent.Status == "" {
			agent.Status = domain.AgentStatusInitializing
		}
		r.agents[a.Name] = &agent
		r.order = append(r.order, a.Name)
	}
	return r
}

// AddListener subscribes l to agent changes.
func (r *Registry) AddListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Register records a hub registration. It is idempotent: a repeat call only
// refreshes the last-seen time. A configured agent still initializing becomes
// active; a failed agent stays failed.
func (r *Registry) Register(name string) domain.RegistrationAck {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	agent, configured := r.agents[name]
	if !configured {
		seen := r.unknown.Contains(name)
		r.unknown.Add(name, now)
		if !seen {
			r.log.Warn("registration from unconfigured agent", "agent", name)
		}
		return domain.RegistrationAck{Name: name, First: !seen, SeenAt: now}
	}

	seen := agent.Registered
	ack := domain.RegistrationAck{Name: name, First: !seen, SeenAt: now, Configured: true}
	agent.Registered = true
	agent.LastSeen = &now
	if agent.Status == domain.AgentStatusInitializing {
		agent.Status = domain.AgentStatusActive
	}
	if !seen {
		r.log.Info("agent registered", "agent", name, "status", agent.Status)
	}
	r.notify(agent.Clone())
	return ack
}

func (r *Registry) notify(changed domain.Agent) {
	for _, l := range r.listeners {
		l.AgentChanged(changed)
	}
}

// MarkStatus is the only status mutator. Unknown names, transitions out of a
// terminal status and moves back to initializing are logged and ignored; it
// reports whether the status was applied.
func (r *Registry) MarkStatus(name string, status domain.AgentStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[name]
	if !ok {
		r.log.Warn("status update for unknown agent", "agent", name, "status", status)
		return false
	}
	if agent.Status.Terminal() && agent.Status != status {
		r.log.Warn("ignored transition out of terminal status", "agent", name, "from", agent.Status, "to", status)
		return false
	}
	if status == domain.AgentStatusInitializing && agent.Status != domain.AgentStatusInitializing {
		r.log.Warn("ignored transition back to initializing", "agent", name, "from", agent.Status)
		return false
	}
	agent.Status = status
	r.notify(agent.Clone())
	return true
}

// ListActive returns the active agents in configuration order.
func (r *Registry) ListActive() []domain.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Agent, 0, len(r.order))
	for _, name := range r.order {
		if a := r.agents[name]; a.Status == domain.AgentStatusActive {
			out = append(out, a.Clone())
		}
	}
	return out
}

// All returns every configured agent in configuration order.
func (r *Registry) All() []domain.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Agent, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.agents[name].Clone())
	}
	return out
}

// Get returns a copy of the named agent.
func (r *Registry) Get(name string) (domain.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	if !ok {
		return domain.Agent{}, false
	}
	return a.Clone(), true
}

// Total returns the number of configured agents.
func (r *Registry) Total() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ActiveCount returns the number of active agents.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, a := range r.agents {
		if a.Status == domain.AgentStatusActive {
			n++
		}
	}
	return n
}

// RegisteredCount returns the number of distinct names registered through the
// hub. Unconfigured names count up to the name limit.
func (r *Registry) RegisteredCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := r.unknown.Len()
	for _, a := range r.agents {
		if a.Registered {
			n++
		}
	}
	return n
}
