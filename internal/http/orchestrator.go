package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

// StatusProvider returns the current ecosystem snapshot.
type StatusProvider interface {
	Snapshot() domain.StatusSnapshot
}

// ReportLister returns persisted report history.
type ReportLister interface {
	ListReports(ctx context.Context, limit int) ([]domain.RevenueReport, error)
}

// OrchestratorHandler serves the observation surface.
type OrchestratorHandler struct {
	status  StatusProvider
	reports ReportLister
	metrics http.Handler
	log     *slog.Logger
}

// NewOrchestratorHandler creates the handler. reports and metrics may be nil.
func NewOrchestratorHandler(status StatusProvider, reports ReportLister, metrics http.Handler, log *slog.Logger) *OrchestratorHandler {
	return &OrchestratorHandler{
		status:  status,
		reports: reports,
		metrics: metrics,
		log:     log.With("component", "orchestrator_http"),
	}
}

// RegisterRoutes registers the orchestrator routes.
func (h *OrchestratorHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/status", h.Status)
	e.GET("/reports", h.Reports)
	e.GET("/health", h.Health)
	if h.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.metrics))
	}
}

// Status returns the ecosystem snapshot.
// GET /status
func (h *OrchestratorHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status.Snapshot())
}

// Reports lists revenue reports, newest first.
// GET /reports?limit=n
func (h *OrchestratorHandler) Reports(c echo.Context) error {
	if h.reports == nil {
		return fail(c, http.StatusNotFound, "report history is not enabled")
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fail(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	reports, err := h.reports.ListReports(c.Request().Context(), limit)
	if err != nil {
		h.log.Error("list reports failed", "error", err)
		return fail(c, http.StatusInternalServerError, "failed to list reports")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reports": reports,
	})
}

// Health reports the ecosystem status.
// GET /health
func (h *OrchestratorHandler) Health(c echo.Context) error {
	snap := h.status.Snapshot()
	code := http.StatusOK
	if snap.Ecosystem.Status != domain.EcosystemStatusOperational {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]interface{}{
		"status":        snap.Ecosystem.Status,
		"active_agents": snap.Ecosystem.ActiveAgents,
		"total_agents":  snap.Ecosystem.TotalAgents,
	})
}

// NewHubServer builds the hub echo server.
func NewHubServer(h *HubHandler, log *slog.Logger) *Server {
	e := newEcho(log.With("server", "hub"))
	h.RegisterRoutes(e)
	return &Server{echo: e}
}

// NewOrchestratorServer builds the orchestrator echo server.
func NewOrchestratorServer(h *OrchestratorHandler, log *slog.Logger) *Server {
	e := newEcho(log.With("server", "orchestrator"))
	h.RegisterRoutes(e)
	return &Server{echo: e}
}
