package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prediction outcomes as seen by the caller.
const (
	OutcomeOK              = "ok"
	OutcomeValidationError = "validation_error"
	OutcomeRelayError      = "relay_error"
)

// Metrics holds the gateway collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	PredictionsTotal *prometheus.CounterVec
	RelayDuration    *prometheus.HistogramVec
	RelayErrors      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "gateway_http_requests_total", Help: "Inbound HTTP requests"},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_request_duration_seconds",
				Help:    "Inbound request latency",
				Buckets: []float64{0.005, 0.02, 0.1, 0.3, 1, 2, 5, 10},
			},
			[]string{"method", "path"},
		),
		PredictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "gateway_predictions_total", Help: "Prediction requests by outcome"},
			[]string{"outcome"},
		),
		RelayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_relay_duration_seconds",
				Help:    "Prediction service call latency",
				Buckets: []float64{0.005, 0.02, 0.1, 0.3, 1, 2, 5, 10},
			},
			[]string{"endpoint"},
		),
		RelayErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "gateway_relay_errors_total", Help: "Failed prediction service calls"},
			[]string{"endpoint", "kind"},
		),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal, m.RequestDuration, m.PredictionsTotal, m.RelayDuration, m.RelayErrors,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) CountPrediction(outcome string) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRelay records one outbound call. kind is empty on success.
func (m *Metrics) ObserveRelay(endpoint, kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.RelayDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	if kind != "" {
		m.RelayErrors.WithLabelValues(endpoint, kind).Inc()
	}
}
