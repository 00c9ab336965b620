package samlmetadatasign

import (
	"github.com/philiph/saml-metadata-sign/internal/adapters/driving/pipeline"
)

// Re-export pipeline stage types
type SigningStage = pipeline.SigningStage
type ValidationStage = pipeline.ValidationStage

// Re-export stage constructors
var (
	NewSigningStage    = pipeline.NewSigningStage
	NewValidationStage = pipeline.NewValidationStage
)
