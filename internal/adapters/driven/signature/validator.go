package signature

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
	"github.com/russellhaering/goxmldsig/etreeutils"
	"go.uber.org/zap"

	"github.com/philiph/saml-metadata-sign/internal/core/domain"
)

// Validator verifies enveloped XML signatures on document root
// elements against a restrictive profile: a single reference targeting
// the root itself, enveloped plus optional exclusive-c14n transforms,
// and configurable algorithm blacklists.
//
// A Validator holds only immutable configuration; each verification
// builds its own working state, so one Validator may be shared across
// items and goroutines.
type Validator struct {
	log                         *zap.Logger
	key                         crypto.PublicKey
	blacklistedDigests          map[string]struct{}
	blacklistedSignatureMethods map[string]struct{}
	permitEmptyReferences       bool
}

// NewValidator creates a Validator from the given material. A
// verification key is required, either directly or via a certificate.
func NewValidator(material VerificationMaterial, log *zap.Logger) (*Validator, error) {
	key := material.Key
	if key == nil && material.Certificate != nil {
		key = material.Certificate.PublicKey
	}
	if key == nil {
		return nil, domain.ConfigError("signature validation requires a verification key")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Validator{
		log:                         log,
		key:                         key,
		blacklistedDigests:          toSet(material.BlacklistedDigests),
		blacklistedSignatureMethods: toSet(material.BlacklistedSignatureMethods),
		permitEmptyReferences:       material.PermitEmptyReferences,
	}, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// SignatureElement returns the Signature child of the document root,
// or nil if the document is unsigned. More than one Signature child is
// a structural error: such a document cannot be meaningfully
// evaluated.
func (v *Validator) SignatureElement(root *etree.Element) (*etree.Element, error) {
	sigs := childElementsNS(root, dsig.Namespace, "Signature")
	switch len(sigs) {
	case 0:
		return nil, nil
	case 1:
		return sigs[0], nil
	default:
		return nil, domain.StructuralError("XML document contained more than one signature, unable to process")
	}
}

// VerifySignature verifies the given Signature element against the
// document root. The checks run in a fixed order: structure and
// blacklists first, then the cryptographic verification, then the
// reference-target and transform profile checks on the verified
// signature.
func (v *Validator) VerifySignature(root, sigEl *etree.Element) error {
	if err := validateShape(sigEl); err != nil {
		return err
	}

	signedInfo := childElementsNS(sigEl, dsig.Namespace, "SignedInfo")[0]

	refEl, err := v.extractReference(signedInfo)
	if err != nil {
		return err
	}

	refURI := refEl.SelectAttrValue("URI", "")
	if refURI != "" && !strings.HasPrefix(refURI, "#") {
		return domain.StructuralError(
			fmt.Sprintf("signature Reference URI %q is not a document fragment reference", refURI))
	}

	digestURI, err := referenceDigestURI(refEl)
	if err != nil {
		return err
	}
	v.log.Debug("blacklist checking digest", zap.String("algorithm", digestURI))
	if _, bad := v.blacklistedDigests[digestURI]; bad {
		return domain.StructuralError(fmt.Sprintf("digest algorithm %s is blacklisted", digestURI))
	}

	sigMethodURI, err := signatureMethodURI(signedInfo)
	if err != nil {
		return err
	}
	v.log.Debug("blacklist checking signature method", zap.String("algorithm", sigMethodURI))
	if _, bad := v.blacklistedSignatureMethods[sigMethodURI]; bad {
		return domain.StructuralError(fmt.Sprintf("signature algorithm %s is blacklisted", sigMethodURI))
	}

	target := resolveReferenceTarget(root, refURI)
	if target == nil {
		return domain.CryptoError(
			fmt.Sprintf("signature Reference URI %q could not be resolved", refURI), nil)
	}

	if err := v.verifyReferenceDigest(root, sigEl, refEl, target, digestURI); err != nil {
		return err
	}
	if err := v.verifySignedInfo(sigEl, signedInfo, sigMethodURI); err != nil {
		return err
	}

	// The signature verified; now confirm it covers the right node and
	// uses only permitted transforms.
	if target != root {
		return domain.StructuralError(
			fmt.Sprintf("signature Reference URI %q was resolved to a node other than the document element", refURI))
	}
	if err := validateReferenceTransforms(refEl); err != nil {
		return err
	}

	v.log.Debug("XML document signature verified")
	return nil
}

// validateShape rejects Signature elements that do not have exactly
// one SignedInfo, exactly one SignatureValue, at most one KeyInfo, and
// no Object children.
func validateShape(sigEl *etree.Element) error {
	if n := len(childElementsNS(sigEl, dsig.Namespace, "Object")); n > 0 {
		return domain.StructuralError("signature contained an Object element, this is not allowed")
	}
	signedInfos := len(childElementsNS(sigEl, dsig.Namespace, "SignedInfo"))
	sigValues := len(childElementsNS(sigEl, dsig.Namespace, "SignatureValue"))
	keyInfos := len(childElementsNS(sigEl, dsig.Namespace, "KeyInfo"))
	if signedInfos != 1 || sigValues != 1 || keyInfos > 1 {
		return domain.StructuralError("malformed Signature element")
	}
	return nil
}

// extractReference returns the single Reference of the SignedInfo,
// enforcing the reference count and the empty-reference policy.
func (v *Validator) extractReference(signedInfo *etree.Element) (*etree.Element, error) {
	refs := childElementsNS(signedInfo, dsig.Namespace, "Reference")
	if len(refs) != 1 {
		return nil, domain.StructuralError(
			fmt.Sprintf("signature SignedInfo had invalid number of References: %d", len(refs)))
	}
	ref := refs[0]
	if !v.permitEmptyReferences && ref.SelectAttrValue("URI", "") == "" {
		return nil, domain.StructuralError("empty references are not permitted")
	}
	return ref, nil
}

func referenceDigestURI(refEl *etree.Element) (string, error) {
	methods := childElementsNS(refEl, dsig.Namespace, "DigestMethod")
	if len(methods) != 1 {
		return "", domain.StructuralError("signature Reference is missing its DigestMethod")
	}
	uri := methods[0].SelectAttrValue("Algorithm", "")
	if uri == "" {
		return "", domain.StructuralError("signature DigestMethod has no Algorithm")
	}
	return uri, nil
}

func signatureMethodURI(signedInfo *etree.Element) (string, error) {
	methods := childElementsNS(signedInfo, dsig.Namespace, "SignatureMethod")
	if len(methods) != 1 {
		return "", domain.StructuralError("signature SignedInfo is missing its SignatureMethod")
	}
	uri := methods[0].SelectAttrValue("Algorithm", "")
	if uri == "" {
		return "", domain.StructuralError("signature SignatureMethod has no Algorithm")
	}
	return uri, nil
}

// referenceTransforms returns the Transform elements of a Reference in
// document order.
func referenceTransforms(refEl *etree.Element) ([]*etree.Element, error) {
	wrappers := childElementsNS(refEl, dsig.Namespace, "Transforms")
	switch len(wrappers) {
	case 0:
		return nil, nil
	case 1:
		return childElementsNS(wrappers[0], dsig.Namespace, "Transform"), nil
	default:
		return nil, domain.StructuralError("signature Reference has more than one Transforms element")
	}
}

// verifyReferenceDigest applies the reference's declared transforms to
// the resolved target and compares the digest against DigestValue.
func (v *Validator) verifyReferenceDigest(root, sigEl, refEl, target *etree.Element, digestURI string) error {
	transforms, err := referenceTransforms(refEl)
	if err != nil {
		return err
	}

	// Locate the signature inside the target subtree before copying so
	// the enveloped transform can remove it from the copy.
	sigPath := elementPath(target, sigEl)

	nsCtx, err := etreeutils.NSBuildParentContext(target)
	if err != nil {
		return domain.CryptoError("unable to build namespace context for reference target", err)
	}
	detached, err := etreeutils.NSDetatch(nsCtx, target)
	if err != nil {
		return domain.CryptoError("unable to detach reference target", err)
	}

	var canon dsig.Canonicalizer
	for _, transform := range transforms {
		algo := transform.SelectAttrValue("Algorithm", "")
		if dsig.AlgorithmID(algo) == dsig.EnvelopedSignatureAltorithmId {
			if sigPath != nil {
				removeElementAtPath(detached, sigPath)
			}
			continue
		}
		c, ok := canonicalizerForURI(algo, transformPrefixList(transform))
		if !ok {
			return domain.StructuralError(fmt.Sprintf("saw invalid signature transform: %s", algo))
		}
		canon = c
	}
	if canon == nil {
		canon = dsig.MakeNullCanonicalizer()
	}

	data, err := canon.Canonicalize(detached)
	if err != nil {
		return domain.CryptoError("unable to canonicalize reference target", err)
	}

	hash, ok := digestsByURI[digestURI]
	if !ok {
		return domain.StructuralError(fmt.Sprintf("unsupported digest algorithm: %s", digestURI))
	}
	h := hash.New()
	h.Write(data)

	declared, err := referenceDigestValue(refEl)
	if err != nil {
		return err
	}
	if base64.StdEncoding.EncodeToString(h.Sum(nil)) != declared {
		return domain.CryptoError("XML document signature verification failed: reference digest mismatch", nil)
	}
	return nil
}

func referenceDigestValue(refEl *etree.Element) (string, error) {
	values := childElementsNS(refEl, dsig.Namespace, "DigestValue")
	if len(values) != 1 {
		return "", domain.StructuralError("signature Reference is missing its DigestValue")
	}
	return collapseWhitespace(values[0].Text()), nil
}

// transformPrefixList extracts the PrefixList of a transform's
// InclusiveNamespaces child, if any.
func transformPrefixList(transform *etree.Element) string {
	for _, child := range transform.ChildElements() {
		if child.Tag == "InclusiveNamespaces" {
			return child.SelectAttrValue("PrefixList", "")
		}
	}
	return ""
}

// verifySignedInfo canonicalizes the SignedInfo per its declared
// canonicalization method and checks the signature value against the
// configured public key.
func (v *Validator) verifySignedInfo(sigEl, signedInfo *etree.Element, sigMethodURI string) error {
	c14nMethods := childElementsNS(signedInfo, dsig.Namespace, "CanonicalizationMethod")
	if len(c14nMethods) != 1 {
		return domain.StructuralError("signature SignedInfo is missing its CanonicalizationMethod")
	}
	c14nURI := c14nMethods[0].SelectAttrValue("Algorithm", "")
	canon, ok := canonicalizerForURI(c14nURI, transformPrefixList(c14nMethods[0]))
	if !ok {
		return domain.CryptoError(fmt.Sprintf("unsupported canonicalization method: %s", c14nURI), nil)
	}

	nsCtx, err := etreeutils.NSBuildParentContext(signedInfo)
	if err != nil {
		return domain.CryptoError("unable to build namespace context for SignedInfo", err)
	}
	detached, err := etreeutils.NSDetatch(nsCtx, signedInfo)
	if err != nil {
		return domain.CryptoError("unable to detach SignedInfo", err)
	}
	canonical, err := canon.Canonicalize(detached)
	if err != nil {
		return domain.CryptoError("unable to canonicalize SignedInfo", err)
	}

	method, ok := signatureMethodsByURI[sigMethodURI]
	if !ok {
		return domain.CryptoError(fmt.Sprintf("unsupported signature method: %s", sigMethodURI), nil)
	}

	sigValueEl := childElementsNS(sigEl, dsig.Namespace, "SignatureValue")[0]
	sigBytes, err := base64.StdEncoding.DecodeString(collapseWhitespace(sigValueEl.Text()))
	if err != nil {
		return domain.CryptoError("unable to decode SignatureValue", err)
	}

	h := method.hash.New()
	h.Write(canonical)
	digest := h.Sum(nil)

	switch method.keyKind {
	case "rsa":
		key, ok := v.key.(*rsa.PublicKey)
		if !ok {
			return domain.CryptoError("verification key type does not match RSA signature method", nil)
		}
		if err := rsa.VerifyPKCS1v15(key, method.hash, digest, sigBytes); err != nil {
			return domain.CryptoError("XML document signature verification failed", err)
		}
	case "ecdsa":
		key, ok := v.key.(*ecdsa.PublicKey)
		if !ok {
			return domain.CryptoError("verification key type does not match ECDSA signature method", nil)
		}
		if !ecdsa.VerifyASN1(key, digest, sigBytes) {
			return domain.CryptoError("XML document signature verification failed", nil)
		}
	default:
		return domain.CryptoError(fmt.Sprintf("unsupported signature method: %s", sigMethodURI), nil)
	}
	return nil
}

// validateReferenceTransforms enforces the transform profile on a
// verified reference: one or two transforms, the enveloped-signature
// transform present exactly once, and only an exclusive
// canonicalization transform (with or without comments) besides it.
func validateReferenceTransforms(refEl *etree.Element) error {
	transforms, err := referenceTransforms(refEl)
	if err != nil {
		return err
	}
	if len(transforms) > 2 {
		return domain.StructuralError(
			fmt.Sprintf("invalid number of Transforms was present: %d", len(transforms)))
	}

	enveloped := 0
	for _, transform := range transforms {
		switch algo := dsig.AlgorithmID(transform.SelectAttrValue("Algorithm", "")); algo {
		case dsig.EnvelopedSignatureAltorithmId:
			enveloped++
		case dsig.CanonicalXML10ExclusiveAlgorithmId, dsig.CanonicalXML10ExclusiveWithCommentsAlgorithmId:
			// permitted
		default:
			return domain.StructuralError(fmt.Sprintf("saw invalid signature transform: %s", algo))
		}
	}
	if enveloped != 1 {
		return domain.StructuralError("signature requires exactly one enveloped-signature transform")
	}
	return nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
