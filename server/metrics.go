package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/toncell-lab/emubridge/helper/metrics"
)

type EmulatorAPILabels prometheus.Labels

var (
	EmulateTransactionLabel = EmulatorAPILabels{"method": "emulate_transaction"}
	RunGetMethodLabel       = EmulatorAPILabels{"method": "run_get_method"}
)

// Metrics represents the emulator service metrics
type Metrics struct {
	// Requests number
	requests prometheus.Counter

	// Errors number
	errors prometheus.Counter

	// Requests duration (seconds)
	responseTime prometheus.Histogram

	// Per-endpoint request counters
	emulatorAPI *prometheus.CounterVec
}

func (m *Metrics) RequestsCounterInc() {
	metrics.CounterInc(m.requests)
}

func (m *Metrics) ErrorsCounterInc() {
	metrics.CounterInc(m.errors)
}

func (m *Metrics) ResponseTimeObserve(duration float64) {
	metrics.HistogramObserve(m.responseTime, duration)
}

func (m *Metrics) EmulatorAPICounterInc(label EmulatorAPILabels) {
	if m.emulatorAPI != nil {
		m.emulatorAPI.With((prometheus.Labels)(label)).Inc()
	}
}

// GetPrometheusMetrics return the emulator service metrics instance
func GetPrometheusMetrics(namespace string, labelsWithValues ...string) *Metrics {
	constLabels := metrics.ParseLables(labelsWithValues...)

	m := &Metrics{
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "emulator",
			Name:        "requests",
			Help:        "Requests number",
			ConstLabels: constLabels,
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "emulator",
			Name:        "request_errors",
			Help:        "Request errors number",
			ConstLabels: constLabels,
		}),
		responseTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "emulator",
			Name:      "response_seconds",
			Help:      "Response time (seconds)",
			Buckets: []float64{
				0.001,
				0.01,
				0.1,
				0.5,
				1.0,
				2.0,
			},
			ConstLabels: constLabels,
		}),
		emulatorAPI: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "emulator",
			Name:        "api_requests",
			Help:        "emulator api requests",
			ConstLabels: constLabels,
		}, []string{"method"}),
	}

	prometheus.MustRegister(
		m.requests,
		m.errors,
		m.responseTime,
		m.emulatorAPI,
	)

	return m
}

// NilMetrics will return the non operational service metrics
func NilMetrics() *Metrics {
	return &Metrics{}
}

// NewDummyMetrics will return the no nil service metrics
func NewDummyMetrics(metrics *Metrics) *Metrics {
	if metrics != nil {
		return metrics
	}

	return NilMetrics()
}
