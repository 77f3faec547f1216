package control

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountAndRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.IncAccepted()
	m.IncAccepted()
	m.IncAcceptError()
	m.IncConnectAttempt()
	m.IncConnectFailure(ReasonTimeout)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Accepted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AcceptErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectFailures.WithLabelValues(ReasonTimeout)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsActive))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncAccepted()
		m.IncAcceptError()
		m.IncConnectAttempt()
		m.IncConnected()
		m.IncConnectFailure(ReasonDial)
		m.SessionOpened()
		m.SessionClosed()
	})
}

func TestDebugProbes(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("pool.size", func() any { return 4 })

	assert.Contains(t, dp.Names(), "pool.size")
	state := dp.DumpState()
	assert.Equal(t, 4, state["pool.size"])
	assert.Contains(t, state, "runtime.goroutines")
}
