// Package metrics exposes Prometheus counters for the server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncPairingCodes()
	IncPairingsCompleted()
	IncPairingFailures(code string)
	IncPresenceEvents(event string)
	Handler() http.Handler
}

type Provider struct {
	registry          *prometheus.Registry
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	pairingCodes      prometheus.Counter
	pairingsCompleted prometheus.Counter
	pairingFailures   *prometheus.CounterVec
	presenceEvents    *prometheus.CounterVec
}

func (m *Provider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *Provider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Provider) IncPairingCodes() {
	m.pairingCodes.Inc()
}

func (m *Provider) IncPairingsCompleted() {
	m.pairingsCompleted.Inc()
}

func (m *Provider) IncPairingFailures(code string) {
	m.pairingFailures.WithLabelValues(code).Inc()
}

func (m *Provider) IncPresenceEvents(event string) {
	m.presenceEvents.WithLabelValues(event).Inc()
}

func (m *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// New returns a Prometheus-backed Metrics on its own registry, or a no-op when disabled.
func New(enabled bool) Metrics {
	if !enabled {
		return Noop{}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Provider{
		registry: reg,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lumen_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lumen_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		pairingCodes: factory.NewCounter(prometheus.CounterOpts{
			Name: "lumen_pairing_codes_total",
			Help: "Total number of pairing codes issued",
		}),

		pairingsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "lumen_pairings_completed_total",
			Help: "Total number of pairings completed by an admin",
		}),

		pairingFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lumen_pairing_failures_total",
			Help: "Total number of rejected pairing completions by error code",
		}, []string{"code"}),

		presenceEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lumen_presence_events_total",
			Help: "Presence records added and removed",
		}, []string{"event"}),
	}
}

// Noop is used when metrics are disabled.
type Noop struct{}

func (Noop) IncRequestsTotal(_ string, _ int)                 {}
func (Noop) ObserveRequestDuration(_ string, _ time.Duration) {}
func (Noop) IncPairingCodes()                                 {}
func (Noop) IncPairingsCompleted()                            {}
func (Noop) IncPairingFailures(_ string)                      {}
func (Noop) IncPresenceEvents(_ string)                       {}
func (Noop) Handler() http.Handler                            { return http.NotFoundHandler() }
