package samlmetadatasign

import (
	"github.com/philiph/saml-metadata-sign/internal/adapters/driven/metrics"
	"github.com/philiph/saml-metadata-sign/internal/core/ports"
)

// Re-export metrics port and adapters
type MetricsRecorder = ports.MetricsRecorder
type NoopMetricsRecorder = metrics.NoopMetricsRecorder
type PrometheusMetricsRecorder = metrics.PrometheusMetricsRecorder

// Re-export validation outcome labels
const (
	OutcomeValid    = ports.OutcomeValid
	OutcomeInvalid  = ports.OutcomeInvalid
	OutcomeUnsigned = ports.OutcomeUnsigned
)

// Re-export constructors
var (
	NewNoopMetricsRecorder                   = metrics.NewNoopMetricsRecorder
	NewPrometheusMetricsRecorder             = metrics.NewPrometheusMetricsRecorder
	NewPrometheusMetricsRecorderWithRegistry = metrics.NewPrometheusMetricsRecorderWithRegistry
)
