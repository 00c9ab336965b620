package samlmetadatasign

import (
	"github.com/philiph/saml-metadata-sign/internal/adapters/driven/signature"
	"github.com/philiph/saml-metadata-sign/internal/core/ports"
)

// Re-export signing and validation port interfaces
type ItemSigner = ports.ItemSigner
type SignatureValidator = ports.SignatureValidator

// Re-export the signature adapter types. Most callers only need these
// and the stage constructors in pipeline.go.
type Profile = signature.Profile
type SigningMaterial = signature.SigningMaterial
type VerificationMaterial = signature.VerificationMaterial
type Signer = signature.Signer
type Validator = signature.Validator
type SHAVariant = signature.SHAVariant

// Re-export digest variants
const (
	SHA1   = signature.SHA1
	SHA256 = signature.SHA256
	SHA384 = signature.SHA384
	SHA512 = signature.SHA512
)

// Re-export constructors and key material loaders
var (
	DefaultProfile              = signature.DefaultProfile
	DefaultVerificationMaterial = signature.DefaultVerificationMaterial
	NewSigner                   = signature.NewSigner
	NewValidator                = signature.NewValidator
	LoadSigningCertificates     = signature.LoadSigningCertificates
	LoadPrivateKey              = signature.LoadPrivateKey
	LoadPublicKey               = signature.LoadPublicKey
	LoadCRLs                    = signature.LoadCRLs
)
