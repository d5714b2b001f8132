package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
	"github.com/xiaot623/gogo/ecosystem/internal/hub"
	"github.com/xiaot623/gogo/ecosystem/internal/logger"
	"github.com/xiaot623/gogo/ecosystem/internal/policy"
	"github.com/xiaot623/gogo/ecosystem/internal/registry"
	"github.com/xiaot623/gogo/ecosystem/internal/ws"
)

func newTestHubHandler(t *testing.T) (*HubHandler, *hub.Hub, *registry.Registry) {
	t.Helper()
	log := logger.Discard()

	reg := registry.New([]domain.Agent{
		{Name: "AutoGen", Capabilities: []string{"code_generation"}, RevenueTier: domain.RevenueTierVeryHigh},
		{Name: "CrewAI", Capabilities: []string{"role_based_agents"}, RevenueTier: domain.RevenueTierHigh},
	}, log)

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	h, err := hub.NewHub(reg, hub.Options{Admission: engine, Logger: log})
	require.NoError(t, err)
	h.Open()

	return NewHubHandler(h, ws.NewServer(ws.Settings{}, h, log), log), h, reg
}

func postRegister(t *testing.T, handler *HubHandler, name string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/register/"+url.PathEscape(name), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("agentName")
	c.SetParamValues(name)

	require.NoError(t, handler.Register(c))
	return rec
}

func TestRegisterSuccess(t *testing.T) {
	handler, _, reg := newTestHubHandler(t)

	rec := postRegister(t, handler, "AutoGen")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "AutoGen", resp.Registered)

	agent, ok := reg.Get("AutoGen")
	require.True(t, ok)
	assert.Equal(t, domain.AgentStatusActive, agent.Status)
}

func TestRegisterIsIdempotentUnderConcurrency(t *testing.T) {
	handler, _, reg := newTestHubHandler(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := postRegister(t, handler, "CrewAI")
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reg.RegisteredCount())
	assert.Equal(t, 2, reg.Total())
}

func TestRegisterUnconfiguredAgent(t *testing.T) {
	handler, _, reg := newTestHubHandler(t)

	rec := postRegister(t, handler, "Stranger")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, reg.RegisteredCount())
	_, ok := reg.Get("Stranger")
	assert.False(t, ok)
}

func TestRegisterRejectedByPolicy(t *testing.T) {
	handler, _, reg := newTestHubHandler(t)

	rec := postRegister(t, handler, "bad name")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "invalid characters")
	assert.Zero(t, reg.RegisteredCount())
}

func TestRegisterWhileShuttingDown(t *testing.T) {
	handler, h, reg := newTestHubHandler(t)
	h.Close()

	rec := postRegister(t, handler, "AutoGen")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, reg.RegisteredCount())
}

func TestHealth(t *testing.T) {
	handler, _, _ := newTestHubHandler(t)
	postRegister(t, handler, "AutoGen")
	postRegister(t, handler, "CrewAI")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, handler.Health(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, 2, resp.Agents)
	assert.Zero(t, resp.Messages)
	assert.GreaterOrEqual(t, resp.UptimeSeconds, 0.0)
}

func TestHealthWhenClosed(t *testing.T) {
	handler, h, _ := newTestHubHandler(t)
	h.Close()

	e := echo.New()
	rec := httptest.NewRecorder()
	require.NoError(t, handler.Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMessagesLimitValidation(t *testing.T) {
	handler, _, _ := newTestHubHandler(t)

	e := echo.New()
	rec := httptest.NewRecorder()
	require.NoError(t, handler.Messages(e.NewContext(httptest.NewRequest(http.MethodGet, "/messages?limit=abc", nil), rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	require.NoError(t, handler.Messages(e.NewContext(httptest.NewRequest(http.MethodGet, "/messages?limit=5", nil), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"messages":[]}`, rec.Body.String())
}

func TestHubServerRoutes(t *testing.T) {
	handler, _, _ := newTestHubHandler(t)
	srv := NewHubServer(handler, logger.Discard())

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register/AutoGen", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"registered":"AutoGen"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register/"+url.PathEscape("bad name"), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid characters")
}
