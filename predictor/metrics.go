package predictor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons recorded by the rejections counter.
const (
	ReasonEmptyInput      = "empty_input"
	ReasonEmptyNormalized = "empty_normalized"
)

// Metrics holds the predictor's Prometheus collectors on a private registry.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Predictions       *prometheus.CounterVec
	Rejections        *prometheus.CounterVec
	PredictionErrors  prometheus.Counter
	PredictionLatency prometheus.Histogram
}

// NewMetrics registers the predictor collectors plus Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_predictions_total",
			Help: "Predictions made, by resolved condition label",
		}, []string{"label"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_rejections_total",
			Help: "Inputs refused before classification, by reason",
		}, []string{"reason"}),
		PredictionErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictor_prediction_errors_total",
			Help: "Predictions that failed in the vectorizer or classifier",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "predictor_prediction_duration_seconds",
			Help:    "Time to normalize, vectorize and classify one input",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
	}
}

// Registry exposes the private registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) recordPrediction(label string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Predictions.WithLabelValues(label).Inc()
	m.PredictionLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) recordRejection(reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) recordError() {
	if m == nil {
		return
	}
	m.PredictionErrors.Inc()
}
