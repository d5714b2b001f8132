package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

func TestHubCounters(t *testing.T) {
	m := New()

	m.MessageRelayed("revenue_generated")
	m.MessageRelayed("status_update")
	m.MessageRelayed("anything_else")
	m.MessageRelayed("")
	m.MessageDropped("malformed")
	m.DeliveryDropped()
	m.PeersConnected(3)
	m.Registration("accepted")
	m.Registration("accepted")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesRelayed.WithLabelValues("revenue_generated")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messagesRelayed.WithLabelValues("other")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesRelayed.WithLabelValues("untyped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesDropped.WithLabelValues("malformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveriesFailed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.peers))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.registrations.WithLabelValues("accepted")))
}

func TestRevenueAndAgentGauges(t *testing.T) {
	m := New()

	m.RevenueUpdated(566.5, 4000)
	m.TasksAssigned(6)
	m.AgentStatuses([]domain.Agent{
		{Name: "a", Status: domain.AgentStatusActive},
		{Name: "b", Status: domain.AgentStatusActive},
		{Name: "c", Status: domain.AgentStatusFailed},
	})

	assert.Equal(t, 566.5, testutil.ToFloat64(m.revenueTotal))
	assert.Equal(t, 4000.0, testutil.ToFloat64(m.revenueHourly))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.tasksAssigned))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.agents.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.agents.WithLabelValues("failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.agents.WithLabelValues("initializing")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RevenueUpdated(10, 20)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "ecosystem_revenue_total 10")
	assert.Contains(t, string(body), "go_goroutines")
}
