package signature

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
	"github.com/russellhaering/goxmldsig/etreeutils"
	"go.uber.org/zap"

	"github.com/philiph/saml-metadata-sign/internal/core/domain"
)

const excC14NNamespace = "http://www.w3.org/2001/10/xml-exc-c14n#"

// Signer creates enveloped XML signatures over document root elements.
// Configuration is snapshotted at construction; a Signer can be used
// sequentially for any number of documents but is not safe for
// concurrent use on the same document.
type Signer struct {
	log      *zap.Logger
	profile  Profile
	material SigningMaterial

	c14nAlgo   string
	sigAlgo    string
	digestAlgo string
	canon      dsig.Canonicalizer
}

// NewSigner creates a Signer for the given profile and material. The
// private key is required.
func NewSigner(profile Profile, material SigningMaterial, log *zap.Logger) (*Signer, error) {
	if material.Key == nil {
		return nil, domain.ConfigError("signing requires a private key")
	}
	if log == nil {
		log = zap.NewNop()
	}

	sigAlgo, digestAlgo, _ := profile.SHAVariant.methods()
	c14nAlgo, canon := canonicalization(profile.C14NExclusive, profile.C14NWithComments, profile.InclusivePrefixList)

	return &Signer{
		log:        log,
		profile:    profile,
		material:   material,
		c14nAlgo:   c14nAlgo,
		sigAlgo:    sigAlgo,
		digestAlgo: digestAlgo,
		canon:      canon,
	}, nil
}

// Sign implements the ItemSigner port by signing the item's document
// root in place.
func (s *Signer) Sign(item *domain.Item) error {
	root := item.Root()
	if root == nil {
		return domain.BadInputError("cannot sign an empty document")
	}
	return s.SignElement(root)
}

// SignElement inserts an enveloped Signature as the first child of
// root. root must be the root element of a standalone document.
func (s *Signer) SignElement(root *etree.Element) error {
	refURI := ""
	if id := elementID(root, s.profile.IDAttributeNames); id != "" {
		refURI = "#" + id
		s.log.Debug("resolved reference ID for element", zap.String("id", id))
	}

	digestValue, err := s.referenceDigest(root)
	if err != nil {
		return err
	}

	sigEl := s.buildSignature(refURI, digestValue)

	root.InsertChildAt(0, sigEl)

	if err := s.applySignatureValue(sigEl); err != nil {
		// Leave no half-built signature behind.
		root.RemoveChild(sigEl)
		return err
	}

	if s.profile.RemoveCRsFromSignature {
		StripCRs(sigEl)
	}

	s.log.Debug("inserted enveloped signature",
		zap.String("signatureMethod", s.sigAlgo),
		zap.String("canonicalization", s.c14nAlgo),
		zap.String("referenceURI", refURI))
	return nil
}

// referenceDigest canonicalizes the element being signed and digests
// it. The signature element is not yet present, which is equivalent to
// applying the enveloped-signature transform.
func (s *Signer) referenceDigest(root *etree.Element) (string, error) {
	data, err := s.canon.Canonicalize(root)
	if err != nil {
		return "", domain.ServiceError("unable to canonicalize element for digest", err)
	}

	_, _, hash := s.profile.SHAVariant.methods()
	h := hash.New()
	h.Write(data)
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// buildSignature constructs the complete Signature element with an
// empty SignatureValue.
func (s *Signer) buildSignature(refURI, digestValue string) *etree.Element {
	prefix := dsig.DefaultPrefix

	sigEl := etree.NewElement(prefix + ":Signature")
	sigEl.CreateAttr("xmlns:"+prefix, dsig.Namespace)

	signedInfo := sigEl.CreateElement(prefix + ":SignedInfo")

	c14nMethod := signedInfo.CreateElement(prefix + ":CanonicalizationMethod")
	c14nMethod.CreateAttr("Algorithm", s.c14nAlgo)
	s.attachPrefixList(c14nMethod)

	sigMethod := signedInfo.CreateElement(prefix + ":SignatureMethod")
	sigMethod.CreateAttr("Algorithm", s.sigAlgo)

	ref := signedInfo.CreateElement(prefix + ":Reference")
	ref.CreateAttr("URI", refURI)

	transforms := ref.CreateElement(prefix + ":Transforms")

	enveloped := transforms.CreateElement(prefix + ":Transform")
	enveloped.CreateAttr("Algorithm", string(dsig.EnvelopedSignatureAltorithmId))

	c14nTransform := transforms.CreateElement(prefix + ":Transform")
	c14nTransform.CreateAttr("Algorithm", s.c14nAlgo)
	s.attachPrefixList(c14nTransform)

	digestMethod := ref.CreateElement(prefix + ":DigestMethod")
	digestMethod.CreateAttr("Algorithm", s.digestAlgo)

	ref.CreateElement(prefix + ":DigestValue").SetText(digestValue)

	sigEl.CreateElement(prefix + ":SignatureValue")

	if keyInfo := s.buildKeyInfo(prefix); keyInfo != nil {
		sigEl.AddChild(keyInfo)
	}

	return sigEl
}

// attachPrefixList adds an InclusiveNamespaces child when exclusive
// c14n is configured with a prefix list.
func (s *Signer) attachPrefixList(parent *etree.Element) {
	if !s.profile.C14NExclusive || len(s.profile.InclusivePrefixList) == 0 {
		return
	}
	inc := parent.CreateElement("ec:InclusiveNamespaces")
	inc.CreateAttr("xmlns:ec", excC14NNamespace)
	inc.CreateAttr("PrefixList", strings.Join(s.profile.InclusivePrefixList, " "))
}

// applySignatureValue canonicalizes the in-document SignedInfo, signs
// it, and fills in the SignatureValue text. Must be called after the
// signature element has been inserted so that inherited namespace
// declarations are in scope.
func (s *Signer) applySignatureValue(sigEl *etree.Element) error {
	signedInfo := sigEl.ChildElements()[0]

	nsCtx, err := etreeutils.NSBuildParentContext(signedInfo)
	if err != nil {
		return domain.ServiceError("unable to build namespace context for SignedInfo", err)
	}
	detached, err := etreeutils.NSDetatch(nsCtx, signedInfo)
	if err != nil {
		return domain.ServiceError("unable to detach SignedInfo", err)
	}

	canonical, err := s.canon.Canonicalize(detached)
	if err != nil {
		return domain.ServiceError("unable to canonicalize SignedInfo", err)
	}

	_, _, hash := s.profile.SHAVariant.methods()
	h := hash.New()
	h.Write(canonical)

	sigBytes, err := rsa.SignPKCS1v15(rand.Reader, s.material.Key, hash, h.Sum(nil))
	if err != nil {
		return domain.ServiceError("unable to create signature value", err)
	}

	for _, child := range sigEl.ChildElements() {
		if child.Tag == "SignatureValue" {
			child.SetText(base64.StdEncoding.EncodeToString(sigBytes))
			return nil
		}
	}
	return domain.ServiceError("signature element is missing SignatureValue", nil)
}

// buildKeyInfo assembles the KeyInfo element from the profile flags,
// or returns nil when nothing would be included.
func (s *Signer) buildKeyInfo(prefix string) *etree.Element {
	keyInfo := etree.NewElement(prefix + ":KeyInfo")

	if s.profile.IncludeKeyNames {
		for _, name := range s.profile.KeyNames {
			keyInfo.CreateElement(prefix + ":KeyName").SetText(name)
		}
	}

	if s.profile.IncludeKeyValue {
		if key := s.publishedKey(); key != nil {
			keyValue := keyInfo.CreateElement(prefix + ":KeyValue")
			rsaValue := keyValue.CreateElement(prefix + ":RSAKeyValue")
			rsaValue.CreateElement(prefix + ":Modulus").
				SetText(base64.StdEncoding.EncodeToString(key.N.Bytes()))
			rsaValue.CreateElement(prefix + ":Exponent").
				SetText(base64.StdEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()))
		}
	}

	if x509Data := s.buildX509Data(prefix); x509Data != nil {
		keyInfo.AddChild(x509Data)
	}

	if len(keyInfo.ChildElements()) == 0 {
		return nil
	}
	return keyInfo
}

// publishedKey returns the public key for the KeyInfo key value: the
// explicit key if set, otherwise the end-entity certificate's key.
// The two sources are deliberately not cross-checked.
func (s *Signer) publishedKey() *rsa.PublicKey {
	if s.material.PublicKey != nil {
		return s.material.PublicKey
	}
	if len(s.material.Certificates) > 0 {
		if key, ok := s.material.Certificates[0].PublicKey.(*rsa.PublicKey); ok {
			return key
		}
	}
	return nil
}

func (s *Signer) buildX509Data(prefix string) *etree.Element {
	x509Data := etree.NewElement(prefix + ":X509Data")

	if len(s.material.Certificates) > 0 {
		endEntity := s.material.Certificates[0]

		if s.profile.IncludeX509SubjectName {
			x509Data.CreateElement(prefix + ":X509SubjectName").
				SetText(endEntity.Subject.String())
		}

		if s.profile.IncludeX509Certificates {
			for _, cert := range s.material.Certificates {
				x509Data.CreateElement(prefix + ":X509Certificate").
					SetText(base64.StdEncoding.EncodeToString(cert.Raw))
			}
		}

		if s.profile.IncludeX509IssuerSerial {
			issuerSerial := x509Data.CreateElement(prefix + ":X509IssuerSerial")
			issuerSerial.CreateElement(prefix + ":X509IssuerName").
				SetText(endEntity.Issuer.String())
			issuerSerial.CreateElement(prefix + ":X509SerialNumber").
				SetText(fmt.Sprintf("%d", endEntity.SerialNumber))
		}
	}

	if s.profile.IncludeX509CRLs {
		for _, crl := range s.material.CRLs {
			x509Data.CreateElement(prefix + ":X509CRL").
				SetText(base64.StdEncoding.EncodeToString(crl.Raw))
		}
	}

	if len(x509Data.ChildElements()) == 0 {
		return nil
	}
	return x509Data
}
