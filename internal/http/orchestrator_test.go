package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
	"github.com/xiaot623/gogo/ecosystem/internal/logger"
	"github.com/xiaot623/gogo/ecosystem/internal/metrics"
	"github.com/xiaot623/gogo/ecosystem/internal/repository/repotest"
)

type fakeStatus struct {
	snap domain.StatusSnapshot
}

func (f fakeStatus) Snapshot() domain.StatusSnapshot { return f.snap }

type brokenReports struct{}

func (brokenReports) ListReports(context.Context, int) ([]domain.RevenueReport, error) {
	return nil, errors.New("db closed")
}

func operationalSnapshot() domain.StatusSnapshot {
	return domain.StatusSnapshot{
		Ecosystem: domain.EcosystemState{
			ID:           "eco",
			Status:       domain.EcosystemStatusOperational,
			ActiveAgents: 1,
			TotalAgents:  2,
		},
		Agents: []domain.Agent{
			{Name: "AutoGen", Status: domain.AgentStatusActive},
			{Name: "CrewAI", Status: domain.AgentStatusFailed},
		},
		RevenueTracking:  domain.RevenueTracking{TotalRevenue: 566.67, HourlyRate: 4000, DailyTarget: 10000},
		CommunicationHub: "http://localhost:8080",
	}
}

func TestStatus(t *testing.T) {
	handler := NewOrchestratorHandler(fakeStatus{operationalSnapshot()}, nil, nil, logger.Discard())

	e := echo.New()
	rec := httptest.NewRecorder()
	require.NoError(t, handler.Status(e.NewContext(httptest.NewRequest(http.MethodGet, "/status", nil), rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "http://localhost:8080", body["communication_hub"])
	assert.Len(t, body["agents"], 2)
	tracking := body["revenue_tracking"].(map[string]interface{})
	assert.Equal(t, 4000.0, tracking["hourly_rate"])
}

func TestReports(t *testing.T) {
	store := repotest.NewSQLiteStore(t)
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveReport(context.Background(), domain.RevenueReport{
			Timestamp:   ts.Add(time.Duration(i) * time.Minute),
			EcosystemID: "eco",
			Revenue:     domain.ReportRevenue{Total: float64(i)},
		}))
	}
	handler := NewOrchestratorHandler(fakeStatus{operationalSnapshot()}, store, nil, logger.Discard())

	e := echo.New()
	rec := httptest.NewRecorder()
	require.NoError(t, handler.Reports(e.NewContext(httptest.NewRequest(http.MethodGet, "/reports?limit=2", nil), rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Reports []domain.RevenueReport `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Reports, 2)
	assert.Equal(t, 2.0, body.Reports[0].Revenue.Total)
}

func TestReportsErrors(t *testing.T) {
	e := echo.New()

	disabled := NewOrchestratorHandler(fakeStatus{}, nil, nil, logger.Discard())
	rec := httptest.NewRecorder()
	require.NoError(t, disabled.Reports(e.NewContext(httptest.NewRequest(http.MethodGet, "/reports", nil), rec)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	broken := NewOrchestratorHandler(fakeStatus{}, brokenReports{}, nil, logger.Discard())
	rec = httptest.NewRecorder()
	require.NoError(t, broken.Reports(e.NewContext(httptest.NewRequest(http.MethodGet, "/reports", nil), rec)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	require.NoError(t, broken.Reports(e.NewContext(httptest.NewRequest(http.MethodGet, "/reports?limit=-1", nil), rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrchestratorHealth(t *testing.T) {
	e := echo.New()

	handler := NewOrchestratorHandler(fakeStatus{operationalSnapshot()}, nil, nil, logger.Discard())
	rec := httptest.NewRecorder()
	require.NoError(t, handler.Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	degraded := operationalSnapshot()
	degraded.Ecosystem.Status = domain.EcosystemStatusDegraded
	handler = NewOrchestratorHandler(fakeStatus{degraded}, nil, nil, logger.Discard())
	rec = httptest.NewRecorder()
	require.NoError(t, handler.Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOrchestratorServerServesMetrics(t *testing.T) {
	m := metrics.New()
	m.RevenueUpdated(42, 0)
	handler := NewOrchestratorHandler(fakeStatus{operationalSnapshot()}, nil, m.Handler(), logger.Discard())
	srv := NewOrchestratorServer(handler, logger.Discard())

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ecosystem_revenue_total 42")
}
