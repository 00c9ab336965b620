package ports

// Validation outcome labels reported to MetricsRecorder implementations.
const (
	OutcomeValid    = "valid"
	OutcomeInvalid  = "invalid"
	OutcomeUnsigned = "unsigned"
)

// MetricsRecorder is the port interface for recording metrics.
// Implementations are adapters (PrometheusMetricsRecorder for production,
// NoopMetricsRecorder for disabled/testing).
type MetricsRecorder interface {
	// RecordItemSigned records a signing attempt on one item.
	RecordItemSigned(success bool)

	// RecordSignatureValidation records the outcome of validating one
	// item: valid, invalid, or unsigned.
	RecordSignatureValidation(outcome string)
}
