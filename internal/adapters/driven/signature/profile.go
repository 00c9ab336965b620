package signature

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
)

// Profile is the signing profile: algorithm choices, canonicalization
// mode, reference-ID resolution, and KeyInfo content flags. Build one
// with DefaultProfile and adjust fields before constructing a Signer.
//
// A Profile is a plain value and safe to share between signers once
// constructed.
type Profile struct {
	// SHAVariant selects the signature and digest algorithms.
	SHAVariant SHAVariant

	// C14NExclusive selects exclusive canonicalization; inclusive
	// otherwise.
	C14NExclusive bool

	// C14NWithComments selects the with-comments form of the chosen
	// canonicalization algorithm.
	C14NWithComments bool

	// InclusivePrefixList is attached to exclusive canonicalization
	// methods and transforms. Ignored for inclusive c14n.
	InclusivePrefixList []string

	// IDAttributeNames are the attribute names checked, in order, when
	// resolving an ID for the element being signed.
	IDAttributeNames []string

	// KeyNames are explicit names associated with the signing key,
	// emitted when IncludeKeyNames is set.
	KeyNames []string

	IncludeKeyNames         bool
	IncludeKeyValue         bool
	IncludeX509SubjectName  bool
	IncludeX509Certificates bool
	IncludeX509IssuerSerial bool
	IncludeX509CRLs         bool

	// RemoveCRsFromSignature strips carriage returns from the text of
	// SignatureValue and X509Certificate elements after signing, so
	// that downstream serialization cannot corrupt the base64 blocks.
	RemoveCRsFromSignature bool
}

// DefaultProfile returns the default signing profile: RSA-SHA256,
// exclusive canonicalization without comments, ID attribute candidates
// "ID", "id", "Id", and CR stripping enabled.
func DefaultProfile() Profile {
	return Profile{
		SHAVariant:             SHA256,
		C14NExclusive:          true,
		IDAttributeNames:       []string{"ID", "id", "Id"},
		RemoveCRsFromSignature: true,
	}
}

// SigningMaterial holds the key material for a Signer. Key is
// required. If Certificates are supplied and PublicKey is nil, the
// KeyInfo key value is drawn from the first certificate; an explicitly
// supplied PublicKey is never cross-checked against the chain.
type SigningMaterial struct {
	// Key is the RSA private key used to sign. Required.
	Key *rsa.PrivateKey

	// PublicKey optionally overrides the key published in KeyInfo.
	PublicKey *rsa.PublicKey

	// Certificates is the chain to publish, end-entity first.
	Certificates []*x509.Certificate

	// CRLs are revocation lists to publish in KeyInfo.
	CRLs []*x509.RevocationList
}

// VerificationMaterial holds the key material and profile restrictions
// for a Validator. Exactly one of Key or Certificate must supply the
// verification key; a Certificate only contributes its embedded key.
type VerificationMaterial struct {
	// Key is the public key signatures are verified against.
	Key crypto.PublicKey

	// Certificate optionally supplies Key from its embedded public key
	// when Key is nil.
	Certificate *x509.Certificate

	// BlacklistedDigests are reference digest algorithm URIs that are
	// always rejected.
	BlacklistedDigests []string

	// BlacklistedSignatureMethods are SignedInfo signature method URIs
	// that are always rejected.
	BlacklistedSignatureMethods []string

	// PermitEmptyReferences allows the implicit whole-document
	// reference (empty URI). Enabled in DefaultVerificationMaterial.
	PermitEmptyReferences bool
}

// DefaultVerificationMaterial returns verification material with empty
// references permitted and nothing blacklisted. The caller must still
// supply Key or Certificate.
func DefaultVerificationMaterial() VerificationMaterial {
	return VerificationMaterial{PermitEmptyReferences: true}
}
