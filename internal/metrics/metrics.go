// Package metrics exposes Prometheus counters for the authentication core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wanderplan"

// Metrics holds the application counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	signIns         *prometheus.CounterVec
	signUps         prometheus.Counter
	sessionsCreated prometheus.Counter
	sessionsPruned  prometheus.Counter
	gateDecisions   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the counters with reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		signIns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "signin_attempts_total",
			Help:      "Sign-in attempts by result.",
		}, []string{"result"}),
		signUps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "signups_total",
			Help:      "Accounts registered.",
		}),
		sessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "created_total",
			Help:      "Sessions issued.",
		}),
		sessionsPruned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "pruned_total",
			Help:      "Expired sessions removed by the sweeper.",
		}),
		gateDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Request gate decisions by reason.",
		}, []string{"reason"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status class.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) SignIn(result string) {
	if m == nil {
		return
	}
	m.signIns.WithLabelValues(result).Inc()
}

func (m *Metrics) SignUp() {
	if m == nil {
		return
	}
	m.signUps.Inc()
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

func (m *Metrics) SessionsPruned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsPruned.Add(float64(n))
}

func (m *Metrics) GateDecision(reason string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(reason).Inc()
}

// ObserveRequest records the latency of one request. code is the status
// class, e.g. "2xx".
func (m *Metrics) ObserveRequest(route, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, code).Observe(d.Seconds())
}

// Handler serves the exposition format for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
