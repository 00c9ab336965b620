//go:build unit

package signature

import (
	"crypto/x509"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/philiph/saml-metadata-sign/internal/core/domain"
	"github.com/philiph/saml-metadata-sign/testfixtures/metadata"
)

func newTestSigner(t *testing.T, profile Profile, km *metadata.KeyMaterial) *Signer {
	t.Helper()

	signer, err := NewSigner(profile, SigningMaterial{Key: km.Key}, nil)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return signer
}

func TestNewSigner_RequiresKey(t *testing.T) {
	_, err := NewSigner(DefaultProfile(), SigningMaterial{}, nil)
	if err == nil {
		t.Fatal("expected error for missing key")
	}
	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.ErrCodeConfigMissing {
		t.Errorf("expected config_missing AppError, got %v", err)
	}
}

func TestSign_EmptyDocument(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	signer := newTestSigner(t, DefaultProfile(), km)

	err := signer.Sign(domain.NewItem(etree.NewDocument()))
	if err == nil {
		t.Fatal("expected error for empty document")
	}
	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.ErrCodeBadInput {
		t.Errorf("expected bad_input AppError, got %v", err)
	}
}

func TestSignElement_InsertsSignatureAsFirstChild(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	signer := newTestSigner(t, DefaultProfile(), km)

	doc := metadata.IdPDocument(t, "https://idp.example.org")
	root := doc.Root()
	if err := signer.SignElement(root); err != nil {
		t.Fatalf("SignElement: %v", err)
	}

	first := root.ChildElements()[0]
	if first.Tag != "Signature" || first.NamespaceURI() != dsig.Namespace {
		t.Fatalf("first child = {%s}%s, want dsig Signature", first.NamespaceURI(), first.Tag)
	}
	if got := len(childElementsNS(first, dsig.Namespace, "SignatureValue")); got != 1 {
		t.Errorf("SignatureValue count = %d, want 1", got)
	}
	sigValue := childElementsNS(first, dsig.Namespace, "SignatureValue")[0].Text()
	if _, err := base64.StdEncoding.DecodeString(sigValue); err != nil {
		t.Errorf("SignatureValue is not valid base64: %v", err)
	}
}

func TestSignElement_EmptyReferenceWithoutID(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	signer := newTestSigner(t, DefaultProfile(), km)

	// EntityDescriptor has entityID but no ID attribute candidate.
	doc := metadata.IdPDocument(t, "https://idp.example.org")
	if err := signer.SignElement(doc.Root()); err != nil {
		t.Fatalf("SignElement: %v", err)
	}

	ref := findReference(t, doc.Root())
	if got := ref.SelectAttrValue("URI", "missing"); got != "" {
		t.Errorf("Reference URI = %q, want empty", got)
	}
}

func TestSignElement_FragmentReferenceFromID(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	signer := newTestSigner(t, DefaultProfile(), km)

	doc := metadata.AggregateDocument(t, []string{"https://a.example.org"})
	if err := signer.SignElement(doc.Root()); err != nil {
		t.Fatalf("SignElement: %v", err)
	}

	ref := findReference(t, doc.Root())
	if got := ref.SelectAttrValue("URI", ""); got != "#_aggregate" {
		t.Errorf("Reference URI = %q, want #_aggregate", got)
	}
}

func TestSignElement_TransformsMatchProfile(t *testing.T) {
	km := metadata.NewKeyMaterial(t)

	cases := []struct {
		name        string
		exclusive   bool
		comments    bool
		wantC14nURI string
	}{
		{"exclusive", true, false, dsig.CanonicalXML10ExclusiveAlgorithmId.String()},
		{"exclusive with comments", true, true, dsig.CanonicalXML10ExclusiveWithCommentsAlgorithmId.String()},
		{"inclusive", false, false, dsig.CanonicalXML10RecAlgorithmId.String()},
		{"inclusive with comments", false, true, dsig.CanonicalXML10WithCommentsAlgorithmId.String()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			profile := DefaultProfile()
			profile.C14NExclusive = tc.exclusive
			profile.C14NWithComments = tc.comments
			signer := newTestSigner(t, profile, km)

			doc := metadata.AggregateDocument(t, []string{"https://a.example.org"})
			if err := signer.SignElement(doc.Root()); err != nil {
				t.Fatalf("SignElement: %v", err)
			}

			ref := findReference(t, doc.Root())
			transforms, err := referenceTransforms(ref)
			if err != nil {
				t.Fatalf("referenceTransforms: %v", err)
			}
			if len(transforms) != 2 {
				t.Fatalf("transform count = %d, want 2", len(transforms))
			}
			if got := transforms[0].SelectAttrValue("Algorithm", ""); got != string(dsig.EnvelopedSignatureAltorithmId) {
				t.Errorf("first transform = %q, want enveloped-signature", got)
			}
			if got := transforms[1].SelectAttrValue("Algorithm", ""); got != tc.wantC14nURI {
				t.Errorf("second transform = %q, want %q", got, tc.wantC14nURI)
			}
		})
	}
}

func TestSignElement_InclusivePrefixList(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	profile := DefaultProfile()
	profile.InclusivePrefixList = []string{"md", "ds"}
	signer := newTestSigner(t, profile, km)

	doc := metadata.AggregateDocument(t, []string{"https://a.example.org"})
	doc.Root().CreateAttr("xmlns:md", "urn:oasis:names:tc:SAML:2.0:metadata")
	if err := signer.SignElement(doc.Root()); err != nil {
		t.Fatalf("SignElement: %v", err)
	}

	sigEl := doc.Root().ChildElements()[0]
	signedInfo := childElementsNS(sigEl, dsig.Namespace, "SignedInfo")[0]
	c14nMethod := childElementsNS(signedInfo, dsig.Namespace, "CanonicalizationMethod")[0]

	inc := c14nMethod.FindElement("./ec:InclusiveNamespaces")
	if inc == nil {
		t.Fatal("expected InclusiveNamespaces under CanonicalizationMethod")
	}
	if got := inc.SelectAttrValue("PrefixList", ""); got != "md ds" {
		t.Errorf("PrefixList = %q, want %q", got, "md ds")
	}
}

func TestSignElement_KeyInfoComposition(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	profile := DefaultProfile()
	profile.KeyNames = []string{"metadata-signer"}
	profile.IncludeKeyNames = true
	profile.IncludeKeyValue = true
	profile.IncludeX509SubjectName = true
	profile.IncludeX509Certificates = true
	profile.IncludeX509IssuerSerial = true
	profile.IncludeX509CRLs = true

	material := SigningMaterial{
		Key:          km.Key,
		Certificates: []*x509.Certificate{km.Certificate},
		CRLs:         []*x509.RevocationList{km.CRL},
	}
	signer, err := NewSigner(profile, material, nil)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	doc := metadata.IdPDocument(t, "https://idp.example.org")
	if err := signer.SignElement(doc.Root()); err != nil {
		t.Fatalf("SignElement: %v", err)
	}

	sigEl := doc.Root().ChildElements()[0]
	keyInfos := childElementsNS(sigEl, dsig.Namespace, "KeyInfo")
	if len(keyInfos) != 1 {
		t.Fatalf("KeyInfo count = %d, want 1", len(keyInfos))
	}
	keyInfo := keyInfos[0]

	if got := keyInfo.FindElement("./ds:KeyName"); got == nil || got.Text() != "metadata-signer" {
		t.Error("expected KeyName with configured name")
	}
	if keyInfo.FindElement("./ds:KeyValue/ds:RSAKeyValue/ds:Modulus") == nil {
		t.Error("expected RSAKeyValue Modulus")
	}

	x509Data := keyInfo.FindElement("./ds:X509Data")
	if x509Data == nil {
		t.Fatal("expected X509Data")
	}
	if subject := x509Data.FindElement("./ds:X509SubjectName"); subject == nil ||
		!strings.Contains(subject.Text(), "Test Metadata Signer") {
		t.Error("expected X509SubjectName with certificate subject")
	}
	certEl := x509Data.FindElement("./ds:X509Certificate")
	if certEl == nil {
		t.Fatal("expected X509Certificate")
	}
	if certEl.Text() != base64.StdEncoding.EncodeToString(km.Certificate.Raw) {
		t.Error("X509Certificate does not match signing certificate")
	}
	if x509Data.FindElement("./ds:X509IssuerSerial/ds:X509SerialNumber") == nil {
		t.Error("expected X509IssuerSerial")
	}
	if x509Data.FindElement("./ds:X509CRL") == nil {
		t.Error("expected X509CRL")
	}
}

func TestSignElement_NoKeyInfoWhenNothingConfigured(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	signer := newTestSigner(t, DefaultProfile(), km)

	doc := metadata.IdPDocument(t, "https://idp.example.org")
	if err := signer.SignElement(doc.Root()); err != nil {
		t.Fatalf("SignElement: %v", err)
	}

	sigEl := doc.Root().ChildElements()[0]
	if got := len(childElementsNS(sigEl, dsig.Namespace, "KeyInfo")); got != 0 {
		t.Errorf("KeyInfo count = %d, want 0", got)
	}
}

func findReference(t *testing.T, root *etree.Element) *etree.Element {
	t.Helper()

	sigEl := root.ChildElements()[0]
	signedInfo := childElementsNS(sigEl, dsig.Namespace, "SignedInfo")[0]
	refs := childElementsNS(signedInfo, dsig.Namespace, "Reference")
	if len(refs) != 1 {
		t.Fatalf("Reference count = %d, want 1", len(refs))
	}
	return refs[0]
}
