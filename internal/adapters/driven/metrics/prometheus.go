package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder records metrics using Prometheus.
type PrometheusMetricsRecorder struct {
	itemsSignedTotal *prometheus.CounterVec
	validationsTotal *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder creates a new Prometheus metrics recorder
// using the default Prometheus registry.
func NewPrometheusMetricsRecorder() *PrometheusMetricsRecorder {
	return NewPrometheusMetricsRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsRecorderWithRegistry creates a new Prometheus metrics recorder
// with a custom registry. Use this for testing.
func NewPrometheusMetricsRecorderWithRegistry(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	itemsSignedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metadata_sign_items_signed_total",
		Help: "Total items signed, by result",
	}, []string{"result"})

	validationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metadata_sign_validations_total",
		Help: "Total signature validation outcomes",
	}, []string{"outcome"})

	reg.MustRegister(itemsSignedTotal, validationsTotal)

	return &PrometheusMetricsRecorder{
		itemsSignedTotal: itemsSignedTotal,
		validationsTotal: validationsTotal,
	}
}

// RecordItemSigned records a signing attempt on one item.
func (p *PrometheusMetricsRecorder) RecordItemSigned(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	p.itemsSignedTotal.WithLabelValues(result).Inc()
}

// RecordSignatureValidation records the outcome of validating one item.
func (p *PrometheusMetricsRecorder) RecordSignatureValidation(outcome string) {
	p.validationsTotal.WithLabelValues(outcome).Inc()
}
