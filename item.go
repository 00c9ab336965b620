package samlmetadatasign

import (
	"github.com/philiph/saml-metadata-sign/internal/core/domain"
)

// Re-export item and status types from domain package
type Item = domain.Item
type Status = domain.Status
type Severity = domain.Severity

// Re-export severity constants
const (
	SeverityInfo    = domain.SeverityInfo
	SeverityWarning = domain.SeverityWarning
	SeverityError   = domain.SeverityError
)

// Re-export constructors
var (
	NewItem       = domain.NewItem
	ErrorStatus   = domain.ErrorStatus
	WarningStatus = domain.WarningStatus
	InfoStatus    = domain.InfoStatus
)
