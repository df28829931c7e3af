package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Check outcomes.
const (
	OutcomeLive    = "live"
	OutcomeOffline = "offline"
	OutcomeError   = "error"
)

// Metrics holds Prometheus collectors for live-status checks and the HTTP API.
type Metrics struct {
	registry      *prometheus.Registry
	checksTotal   *prometheus.CounterVec
	checkDuration prometheus.Histogram
	pollCycles    prometheus.Counter
	liveChannels  prometheus.Gauge
	requestsTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	checksTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ytlive_checks_total",
		Help: "Channel live-status checks by outcome",
	}, []string{"outcome"})
	checkDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ytlive_check_duration_seconds",
		Help:    "Time taken by one channel live-status check",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	})
	pollCycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ytlive_poll_cycles_total",
		Help: "Completed polling passes over all tracked channels",
	})
	liveChannels := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ytlive_live_channels",
		Help: "Tracked channels found live in the last polling pass",
	})
	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ytlive_http_requests_total",
		Help: "HTTP requests by route pattern",
	}, []string{"route"})
	errorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ytlive_http_errors_total",
		Help: "HTTP responses with error status (4xx or 5xx) by route pattern and status",
	}, []string{"route", "status"})

	registry.MustRegister(
		checksTotal,
		checkDuration,
		pollCycles,
		liveChannels,
		requestsTotal,
		errorsTotal,
	)

	return &Metrics{
		registry:      registry,
		checksTotal:   checksTotal,
		checkDuration: checkDuration,
		pollCycles:    pollCycles,
		liveChannels:  liveChannels,
		requestsTotal: requestsTotal,
		errorsTotal:   errorsTotal,
	}
}

// ObserveCheck records one finished check. A nil receiver is a no-op so
// callers without metrics don't need to guard every call.
func (m *Metrics) ObserveCheck(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.checksTotal.WithLabelValues(outcome).Inc()
	m.checkDuration.Observe(took.Seconds())
}

func (m *Metrics) IncPollCycles() {
	if m == nil {
		return
	}
	m.pollCycles.Inc()
}

func (m *Metrics) SetLiveChannels(n int) {
	if m == nil {
		return
	}
	m.liveChannels.Set(float64(n))
}

// ObserveRequest counts one served request; statuses >= 400 also count as
// errors.
func (m *Metrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route).Inc()
	if status >= 400 {
		m.errorsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
