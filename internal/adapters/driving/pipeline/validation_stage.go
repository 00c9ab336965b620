package pipeline

import (
	"errors"

	"go.uber.org/zap"

	"github.com/philiph/saml-metadata-sign/internal/core/domain"
	"github.com/philiph/saml-metadata-sign/internal/core/ports"
)

// ValidationStage validates the XML signature on each item in a batch
// and attaches status metadata describing the outcome.
//
// If an item carries no signature, the stage attaches an error status
// when SignatureRequired is set and otherwise leaves the item alone.
// Cryptographic failures become errors when ValidSignatureRequired is
// set and warnings otherwise. Structural failures - multiple
// signatures, malformed references, disallowed transforms, blacklisted
// algorithms - are always errors: such signatures cannot be
// meaningfully evaluated at all.
type ValidationStage struct {
	id        string
	validator ports.SignatureValidator
	log       *zap.Logger
	metrics   ports.MetricsRecorder

	// SignatureRequired makes an unsigned item an error.
	SignatureRequired bool

	// ValidSignatureRequired makes a cryptographically invalid
	// signature an error rather than a warning.
	ValidSignatureRequired bool
}

// NewValidationStage creates a validation stage with both policy flags
// enabled, matching the most restrictive deployment. The metrics
// recorder may be nil.
func NewValidationStage(id string, validator ports.SignatureValidator, log *zap.Logger, metrics ports.MetricsRecorder) *ValidationStage {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ValidationStage{
		id:                     id,
		validator:              validator,
		log:                    log,
		metrics:                metrics,
		SignatureRequired:      true,
		ValidSignatureRequired: true,
	}
}

// ID returns the stage identifier used in status metadata.
func (s *ValidationStage) ID() string {
	return s.id
}

// Execute validates each item in turn. Validation outcomes are
// reported through item statuses, never as an error from Execute;
// only items with empty documents fail the batch.
func (s *ValidationStage) Execute(items []*domain.Item) error {
	for _, item := range items {
		s.validateItem(item)
	}
	return nil
}

func (s *ValidationStage) validateItem(item *domain.Item) {
	root := item.Root()
	if root == nil {
		item.AddStatus(domain.ErrorStatus(s.id, "item document has no root element"))
		return
	}

	sigEl, err := s.validator.SignatureElement(root)
	if err != nil {
		// e.g. multiple signatures
		s.log.Debug("setting status", zap.String("stage", s.id), zap.Error(err))
		item.AddStatus(domain.ErrorStatus(s.id, err.Error()))
		s.metrics.RecordSignatureValidation(ports.OutcomeInvalid)
		return
	}
	if sigEl == nil {
		if s.SignatureRequired {
			s.log.Debug("document was not signed and signature is required", zap.String("stage", s.id))
			item.AddStatus(domain.ErrorStatus(s.id, "document was not signed but signatures are required"))
		} else {
			s.log.Debug("document is not signed, no verification performed", zap.String("stage", s.id))
		}
		s.metrics.RecordSignatureValidation(ports.OutcomeUnsigned)
		return
	}

	if err := s.validator.VerifySignature(root, sigEl); err != nil {
		message := "element signature is invalid: " + err.Error()
		s.log.Debug("setting status", zap.String("stage", s.id), zap.String("message", message))

		var vErr *domain.ValidationError
		downgrade := errors.As(err, &vErr) &&
			vErr.Kind == domain.ValidationCryptographic &&
			!s.ValidSignatureRequired

		if downgrade {
			item.AddStatus(domain.WarningStatus(s.id, message))
		} else {
			item.AddStatus(domain.ErrorStatus(s.id, message))
		}
		s.metrics.RecordSignatureValidation(ports.OutcomeInvalid)
		return
	}

	s.metrics.RecordSignatureValidation(ports.OutcomeValid)
}
