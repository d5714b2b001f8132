// Package ecosystem boots and supervises the hub, the registry, the revenue
// aggregator and the scheduler as one process.
package ecosystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/gogo/ecosystem/internal/artifact"
	"github.com/xiaot623/gogo/ecosystem/internal/config"
	"github.com/xiaot623/gogo/ecosystem/internal/domain"
	ecohttp "github.com/xiaot623/gogo/ecosystem/internal/http"
	"github.com/xiaot623/gogo/ecosystem/internal/hub"
	"github.com/xiaot623/gogo/ecosystem/internal/metrics"
	"github.com/xiaot623/gogo/ecosystem/internal/periodic"
	"github.com/xiaot623/gogo/ecosystem/internal/policy"
	"github.com/xiaot623/gogo/ecosystem/internal/registry"
	"github.com/xiaot623/gogo/ecosystem/internal/repository"
	"github.com/xiaot623/gogo/ecosystem/internal/revenue"
	"github.com/xiaot623/gogo/ecosystem/internal/scheduler"
	"github.com/xiaot623/gogo/ecosystem/internal/ws"
)

// Store is the optional persistence behind the journal and report history.
type Store interface {
	repository.AgentWriter
	revenue.ReportSink
	ecohttp.ReportLister
}

// Deps are the pluggable collaborators of the controller. Zero values pick
// production defaults.
type Deps struct {
	Fs        afero.Fs
	Launcher  Launcher
	Estimator revenue.Estimator
	Store     Store
	Mirror    hub.Mirror
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Controller owns the ecosystem state and every long-running component.
type Controller struct {
	cfg *config.Config
	log *slog.Logger

	registry   *registry.Registry
	hub        *hub.Hub
	aggregator *revenue.Aggregator
	reporter   *revenue.Reporter
	scheduler  *scheduler.Scheduler
	metrics    *metrics.Metrics
	writer     *artifact.Writer
	launcher   Launcher
	journal    *repository.Journal

	hubServer  *ecohttp.Server
	orchServer *ecohttp.Server

	mu        sync.RWMutex
	status    domain.EcosystemStatus
	startedAt time.Time
	hubURL    string
	hubAddr   net.Addr
	orchAddr  net.Addr

	ready           chan struct{}
	shutdownTimeout time.Duration
}

// New wires the components. Nothing is started until Run.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*Controller, error) {
	if deps.Logger == nil {
		return nil, errors.New("ecosystem: logger is required")
	}
	log := deps.Logger.With("component", "controller", "ecosystem_id", cfg.EcosystemID)

	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Estimator == nil {
		est, err := revenue.NewBandEstimator(revenue.DefaultBands())
		if err != nil {
			return nil, err
		}
		deps.Estimator = est
	}

	reg := registry.New(cfg.RosterAgents(), deps.Logger)
	agg := revenue.NewAggregator(reg, deps.Estimator, cfg.Targets.Daily, deps.Logger)
	agg.AddObserver(deps.Metrics)

	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		return nil, err
	}

	h, err := hub.NewHub(reg, hub.Options{
		MessageLogSize: cfg.MessageLogSize,
		Admission:      engine,
		Revenue:        agg,
		Mirror:         deps.Mirror,
		Recorder:       deps.Metrics,
		Logger:         deps.Logger,
	})
	if err != nil {
		return nil, err
	}

	writer := artifact.NewWriter(deps.Fs)
	c := &Controller{
		cfg:             cfg,
		log:             log,
		registry:        reg,
		hub:             h,
		aggregator:      agg,
		scheduler:       scheduler.New(reg, agg, deps.Logger),
		metrics:         deps.Metrics,
		writer:          writer,
		launcher:        deps.Launcher,
		status:          domain.EcosystemStatusInitializing,
		hubURL:          cfg.HubURL(),
		ready:           make(chan struct{}),
		shutdownTimeout: 5 * time.Second,
	}

	sinks := []revenue.ReportSink{artifact.NewReportFile(writer, cfg.ReportDir)}
	var reports ecohttp.ReportLister
	if deps.Store != nil {
		sinks = append(sinks, deps.Store)
		reports = deps.Store
		c.journal = repository.NewJournal(deps.Store, 256, deps.Logger)
		reg.AddListener(c.journal)
	}
	c.reporter = revenue.NewReporter(agg, c.reportContext, deps.Logger, sinks...)

	wsServer := ws.NewServer(ws.Settings{
		PingInterval:   cfg.PingInterval,
		WriteTimeout:   cfg.WriteTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		MaxMessageSize: cfg.MaxMessageSize,
	}, h, deps.Logger)
	c.hubServer = ecohttp.NewHubServer(ecohttp.NewHubHandler(h, wsServer, deps.Logger), deps.Logger)
	c.orchServer = ecohttp.NewOrchestratorServer(
		ecohttp.NewOrchestratorHandler(c, reports, deps.Metrics.Handler(), deps.Logger), deps.Logger)

	return c, nil
}

// Ready is closed once the ecosystem is operational.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// Status returns the current ecosystem status.
func (c *Controller) Status() domain.EcosystemStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// HubAddr is the bound hub address, nil before boot.
func (c *Controller) HubAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hubAddr
}

// OrchestratorAddr is the bound orchestrator address, nil before boot.
func (c *Controller) OrchestratorAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orchAddr
}

// Registry exposes the agent registry.
func (c *Controller) Registry() *registry.Registry { return c.registry }

// Aggregator exposes the revenue aggregator.
func (c *Controller) Aggregator() *revenue.Aggregator { return c.aggregator }

func (c *Controller) setStatus(s domain.EcosystemStatus) {
	c.mu.Lock()
	prev := c.status
	c.status = s
	c.mu.Unlock()
	if prev != s {
		c.log.Info("ecosystem status changed", "from", prev, "to", s)
	}
}

// Run boots the ecosystem and blocks until ctx is done. Boot happens in
// order: hub bind, shared configuration, agent launch pass. Any boot failure
// is returned wrapped in domain.ErrStartupFailure and leaves the ecosystem
// degraded. After boot the periodic passes run until shutdown.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.startedAt = time.Now()
	c.mu.Unlock()
	c.log.Info("initializing ecosystem", "agents", c.registry.Total())

	g, gctx := errgroup.WithContext(ctx)

	if err := c.boot(gctx, g); err != nil {
		c.setStatus(domain.EcosystemStatusDegraded)
		c.log.Error("ecosystem startup failed", "error", err)
		cancel()
		_ = g.Wait()
		return fmt.Errorf("%w: %w", domain.ErrStartupFailure, err)
	}

	c.setStatus(domain.EcosystemStatusOperational)
	close(c.ready)
	c.log.Info("ecosystem operational",
		"active_agents", c.registry.ActiveCount(),
		"total_agents", c.registry.Total(),
		"communication_hub", c.hubURL)

	for _, task := range c.tasks() {
		g.Go(func() error { return task.Run(gctx, c.log) })
	}

	err := g.Wait()
	c.setStatus(domain.EcosystemStatusStopped)
	return err
}

// boot starts the servers and performs the launch pass. Long-running
// goroutines are added to g and stop when its context is done.
func (c *Controller) boot(ctx context.Context, g *errgroup.Group) error {
	hubLn, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(c.cfg.HubPort)))
	if err != nil {
		return fmt.Errorf("bind hub: %w", err)
	}
	orchLn, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(c.cfg.OrchestratorPort)))
	if err != nil {
		_ = hubLn.Close()
		return fmt.Errorf("bind orchestrator: %w", err)
	}

	c.mu.Lock()
	c.hubAddr = hubLn.Addr()
	c.orchAddr = orchLn.Addr()
	if tcp, ok := hubLn.Addr().(*net.TCPAddr); ok {
		c.hubURL = fmt.Sprintf("http://%s:%d", c.cfg.HubHost, tcp.Port)
	}
	c.mu.Unlock()

	c.hub.Open()
	g.Go(func() error {
		c.hub.Run(ctx)
		return nil
	})
	g.Go(func() error { return c.hubServer.Serve(hubLn) })
	g.Go(func() error { return c.orchServer.Serve(orchLn) })
	g.Go(func() error {
		<-ctx.Done()
		c.hub.Close()
		sctx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
		defer cancel()
		return errors.Join(c.hubServer.Shutdown(sctx), c.orchServer.Shutdown(sctx))
	})
	if c.journal != nil {
		g.Go(func() error { return c.journal.Run(ctx) })
	}
	c.log.Info("communication hub active", "addr", hubLn.Addr().String(), "orchestrator", orchLn.Addr().String())

	path, err := c.writer.WriteSharedConfig(c.cfg.SharedDir, artifact.SharedConfig{
		EcosystemID:            c.cfg.EcosystemID,
		CommunicationHub:       c.hubURL,
		RevenueTrackingEnabled: c.cfg.Flags.RevenueTrackingEnabled,
		AutonomousMode:         c.cfg.Flags.AutonomousMode,
		CollaborationEnabled:   c.cfg.Flags.CollaborationEnabled,
		SharedMemoryPath:       c.cfg.SharedDir,
		RevenueTargets: artifact.RevenueTargets{
			Daily:   c.cfg.Targets.Daily,
			Monthly: c.cfg.Targets.Monthly,
			Annual:  c.cfg.Targets.Annual,
		},
	})
	if err != nil {
		return fmt.Errorf("write shared config: %w", err)
	}
	c.log.Info("infrastructure initialized", "shared_config", path)

	c.launchAll(ctx)
	return ctx.Err()
}

// launchAll launches every configured agent in roster order. A failed launch
// marks only that agent failed.
func (c *Controller) launchAll(ctx context.Context) {
	launcher := c.launcher
	if launcher == nil {
		launcher = NewConfigLauncher(c.writer, c.hubURL, c.cfg.Flags.AutonomousMode, c.log)
	}

	for _, agent := range c.registry.All() {
		if err := launcher.Launch(ctx, agent); err != nil {
			c.log.Error("agent launch failed", "agent", agent.Name, "error", err)
			c.registry.MarkStatus(agent.Name, domain.AgentStatusFailed)
			continue
		}
		c.registry.MarkStatus(agent.Name, domain.AgentStatusActive)
		if _, err := c.hub.Register(ctx, agent.Name); err != nil {
			c.log.Warn("hub registration failed", "agent", agent.Name, "error", err)
		}
		c.log.Info("agent active", "agent", agent.Name, "capabilities", agent.Capabilities)
	}
	c.metrics.AgentStatuses(c.registry.All())
}

// tasks returns the periodic passes.
func (c *Controller) tasks() []*periodic.Task {
	var tasks []*periodic.Task
	if c.cfg.Flags.RevenueTrackingEnabled {
		tasks = append(tasks,
			&periodic.Task{
				Name:     "revenue_tick",
				Interval: c.cfg.RevenueTick,
				Pass: func(context.Context) error {
					c.aggregator.Tick()
					return nil
				},
			},
			&periodic.Task{
				Name:     "revenue_report",
				Interval: c.cfg.ReportInterval,
				Timeout:  30 * time.Second,
				Pass: func(ctx context.Context) error {
					_, err := c.reporter.Publish(ctx)
					return err
				},
			},
		)
	}
	return append(tasks,
		&periodic.Task{
			Name:     "task_assignment",
			Interval: c.cfg.TaskInterval,
			Pass: func(context.Context) error {
				_, count := c.scheduler.AssignTasks()
				c.metrics.TasksAssigned(count)
				c.metrics.AgentStatuses(c.registry.All())
				return nil
			},
		},
		&periodic.Task{
			Name:     "optimize",
			Interval: c.cfg.OptimizeInterval,
			Pass: func(context.Context) error {
				c.scheduler.Optimize()
				return nil
			},
		},
	)
}

func (c *Controller) reportContext() revenue.ReportContext {
	c.mu.RLock()
	startedAt := c.startedAt
	status := c.status
	c.mu.RUnlock()
	return revenue.ReportContext{
		EcosystemID:  c.cfg.EcosystemID,
		Status:       status,
		StartedAt:    startedAt,
		TotalAgents:  c.registry.Total(),
		ActiveAgents: c.registry.ActiveCount(),
	}
}

// Snapshot implements http.StatusProvider. It never mutates state.
func (c *Controller) Snapshot() domain.StatusSnapshot {
	c.mu.RLock()
	state := domain.EcosystemState{
		ID:                  c.cfg.EcosystemID,
		Status:              c.status,
		StartTime:           c.startedAt,
		CommunicationHubURL: c.hubURL,
	}
	c.mu.RUnlock()

	tracking := c.aggregator.Tracking()
	state.ActiveAgents = c.registry.ActiveCount()
	state.TotalAgents = c.registry.Total()
	state.RevenueTracking = tracking

	return domain.StatusSnapshot{
		Ecosystem:        state,
		Agents:           c.registry.All(),
		RevenueTracking:  tracking,
		CommunicationHub: state.CommunicationHubURL,
	}
}

// PublishReport runs the report pass once, outside the schedule.
func (c *Controller) PublishReport(ctx context.Context) (domain.RevenueReport, error) {
	return c.reporter.Publish(ctx)
}
