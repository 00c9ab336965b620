package ports

import (
	"github.com/beevik/etree"

	"github.com/philiph/saml-metadata-sign/internal/core/domain"
)

// ItemSigner adds an enveloped XML signature to an item's document root.
// This is a port interface - implementations are adapters.
type ItemSigner interface {
	// Sign mutates the item's document by inserting a Signature element
	// as the first child of the document root. Any failure is fatal for
	// the item.
	Sign(item *domain.Item) error
}

// SignatureValidator locates and verifies enveloped XML signatures on
// document roots against a restrictive profile.
// This is a port interface - implementations are adapters.
type SignatureValidator interface {
	// SignatureElement returns the single Signature child of the given
	// document root, nil if the document is unsigned, or an error if
	// more than one Signature child is present.
	SignatureElement(root *etree.Element) (*etree.Element, error)

	// VerifySignature verifies the given Signature element both
	// cryptographically and against the profile. Failures are reported
	// as *domain.ValidationError; anything else is an unexpected engine
	// error.
	VerifySignature(root, signature *etree.Element) error
}
