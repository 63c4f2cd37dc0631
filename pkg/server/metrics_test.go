package server

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecording(t *testing.T) {
	m := NewMetrics()

	m.RecordSessionConnected()
	m.RecordSessionConnected()
	m.RecordSessionDisconnected()
	m.RecordActiveSessions(1)
	m.RecordCommand("chat")
	m.RecordCommand("chat")
	m.RecordCommand("file")
	m.RecordBroadcastDrop()
	m.RecordFileRelayed(1024, 3)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.sessionsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.disconnectionsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.commandsTotal.WithLabelValues("chat")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.commandsTotal.WithLabelValues("file")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.broadcastDropsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.filesRelayedTotal))
	assert.Equal(t, float64(3072), testutil.ToFloat64(m.fileBytesTotal))
}

// Two servers in one process must never collide on collector registration.
func TestMetricsIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordSessionConnected()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.sessionsTotal))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.sessionsTotal))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordSessionConnected()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "chatrelay_sessions_total 1")
}
