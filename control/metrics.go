// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for accept, connect and session activity.
// All methods are nil-receiver safe so components can run without metrics.

package control

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hioload"

// Connect failure reasons used as label values.
const (
	ReasonTimeout    = "timeout"
	ReasonDial       = "dial"
	ReasonProcessing = "processing"
	ReasonClosed     = "closed"
)

// Metrics groups the collectors shared by acceptor, connector and sessions.
type Metrics struct {
	Accepted        prometheus.Counter
	AcceptErrors    prometheus.Counter
	ConnectAttempts prometheus.Counter
	Connected       prometheus.Counter
	ConnectFailures *prometheus.CounterVec
	SessionsActive  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "acceptor", Name: "accepted_total",
			Help: "Inbound connections handed to an execution context.",
		}),
		AcceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "acceptor", Name: "errors_total",
			Help: "Accept completions that ended with an error and were absorbed.",
		}),
		ConnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connector", Name: "attempts_total",
			Help: "Outbound connect attempts started.",
		}),
		Connected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connector", Name: "connected_total",
			Help: "Outbound connect attempts that produced a socket.",
		}),
		ConnectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connector", Name: "failures_total",
			Help: "Outbound connect attempts that failed, by reason.",
		}, []string{"reason"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "session", Name: "active",
			Help: "Sessions whose receive loop is running.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Accepted, m.AcceptErrors, m.ConnectAttempts,
			m.Connected, m.ConnectFailures, m.SessionsActive)
	}
	return m
}

func (m *Metrics) IncAccepted() {
	if m != nil {
		m.Accepted.Inc()
	}
}

func (m *Metrics) IncAcceptError() {
	if m != nil {
		m.AcceptErrors.Inc()
	}
}

func (m *Metrics) IncConnectAttempt() {
	if m != nil {
		m.ConnectAttempts.Inc()
	}
}

func (m *Metrics) IncConnected() {
	if m != nil {
		m.Connected.Inc()
	}
}

// IncConnectFailure counts a failed attempt under reason.
func (m *Metrics) IncConnectFailure(reason string) {
	if m != nil {
		m.ConnectFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.SessionsActive.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.SessionsActive.Dec()
	}
}
