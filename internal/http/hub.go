package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
	"github.com/xiaot623/gogo/ecosystem/internal/hub"
	"github.com/xiaot623/gogo/ecosystem/internal/ws"
)

// HubHandler serves registration, health and the relay upgrade.
type HubHandler struct {
	hub *hub.Hub
	ws  *ws.Server
	log *slog.Logger
}

// NewHubHandler creates a hub handler.
func NewHubHandler(h *hub.Hub, wsServer *ws.Server, log *slog.Logger) *HubHandler {
	return &HubHandler{hub: h, ws: wsServer, log: log.With("component", "hub_http")}
}

// RegisterRoutes registers the hub routes.
func (h *HubHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/register/:agentName", h.Register)
	e.GET("/health", h.Health)
	e.GET("/messages", h.Messages)

	// Agents connect to the server root; /ws is kept for tooling.
	e.GET("/", h.ws.HandleWebSocket)
	e.GET("/ws", h.ws.HandleWebSocket)
}

// RegisterResponse is the body of a successful registration.
type RegisterResponse struct {
	Success    bool   `json:"success"`
	Registered string `json:"registered"`
}

// Register registers an agent with the hub.
// POST /register/:agentName
func (h *HubHandler) Register(c echo.Context) error {
	name := c.Param("agentName")

	ack, err := h.hub.Register(c.Request().Context(), name)
	switch {
	case errors.Is(err, domain.ErrHubUnavailable):
		return fail(c, http.StatusServiceUnavailable, "hub is not accepting registrations")
	case errors.Is(err, domain.ErrRegistrationRejected):
		return fail(c, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		h.log.Error("registration failed", "agent", name, "error", err)
		return fail(c, http.StatusInternalServerError, "registration failed")
	}

	return c.JSON(http.StatusOK, RegisterResponse{Success: true, Registered: ack.Name})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Agents        int     `json:"agents"`
	Messages      uint64  `json:"messages"`
	Peers         int     `json:"peers"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Health reports hub liveness.
// GET /health
func (h *HubHandler) Health(c echo.Context) error {
	hh := h.hub.Health()
	status := http.StatusOK
	if !h.hub.Accepting() {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, HealthResponse{
		Status:        hh.Status,
		Agents:        hh.Agents,
		Messages:      hh.Messages,
		Peers:         hh.Peers,
		UptimeSeconds: hh.UptimeSeconds,
	})
}

// Messages lists recently relayed envelopes, oldest first.
// GET /messages?limit=n
func (h *HubHandler) Messages(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fail(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": h.hub.RecentMessages(limit),
	})
}
