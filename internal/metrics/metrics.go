// Package metrics exposes Prometheus instrumentation for upstream calls,
// the session loop and the live match rank cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"downfall/internal/domain"
)

const namespace = "downfall"

// Metrics is safe to use through a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	connectionStatus *prometheus.GaugeVec
	cycles           *prometheus.CounterVec
	rankCache        *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

func NewWithRegistry(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Requests issued to the local client and regional services.",
		}, []string{"family", "code"}),
		upstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of upstream requests.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"family"}),
		connectionStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "status",
			Help:      "1 for the current connection status, 0 otherwise.",
		}, []string{"status"}),
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "cycles_total",
			Help:      "Connect and health check cycles run by the background loop.",
		}, []string{"kind", "result"}),
		rankCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live_match",
			Name:      "rank_cache_total",
			Help:      "Rank cache lookups by outcome.",
		}, []string{"result"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveUpstream records one upstream call. code 0 means the request never got a response.
func (m *Metrics) ObserveUpstream(family string, code int, took time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(family, strconv.Itoa(code)).Inc()
	m.upstreamLatency.WithLabelValues(family).Observe(took.Seconds())
}

func (m *Metrics) SetStatus(status domain.ConnectionStatus) {
	if m == nil {
		return
	}
	for _, s := range []domain.ConnectionStatus{domain.StatusDisconnected, domain.StatusConnecting, domain.StatusConnected} {
		v := 0.0
		if s == status {
			v = 1
		}
		m.connectionStatus.WithLabelValues(string(s)).Set(v)
	}
}

func (m *Metrics) Cycle(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "fail"
	}
	m.cycles.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RankCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.rankCache.WithLabelValues(result).Inc()
}

var Module = fx.Provide(New)
