package metrics

// NoopMetricsRecorder is a no-op implementation for when metrics are
// disabled. All methods are safe to call and do nothing.
type NoopMetricsRecorder struct{}

// NewNoopMetricsRecorder creates a new no-op metrics recorder.
func NewNoopMetricsRecorder() *NoopMetricsRecorder {
	return &NoopMetricsRecorder{}
}

// RecordItemSigned is a no-op.
func (n *NoopMetricsRecorder) RecordItemSigned(success bool) {}

// RecordSignatureValidation is a no-op.
func (n *NoopMetricsRecorder) RecordSignatureValidation(outcome string) {}
