// Package metadata provides key material and SAML metadata documents
// for signature tests. It deliberately avoids importing the signature
// adapter so that the adapter's own tests can use it.
package metadata

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/xml"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/crewjam/saml"
)

// KeyMaterial is a generated RSA key with a matching self-signed
// certificate and an empty CRL issued by it.
type KeyMaterial struct {
	Key         *rsa.PrivateKey
	Certificate *x509.Certificate
	CRL         *x509.RevocationList
}

// NewKeyMaterial generates fresh key material for a test.
func NewKeyMaterial(t testing.TB) *KeyMaterial {
	t.Helper()

	key, cert, err := generateSelfSignedCert()
	if err != nil {
		t.Fatalf("failed to generate signing certificate: %v", err)
	}
	crl, err := generateCRL(key, cert)
	if err != nil {
		t.Fatalf("failed to generate CRL: %v", err)
	}
	return &KeyMaterial{Key: key, Certificate: cert, CRL: crl}
}

// SAML metadata namespace constants.
const (
	samlMetadataNS = "urn:oasis:names:tc:SAML:2.0:metadata"
)

// IdPDocument builds a minimal IdP metadata document using the SAML
// metadata types, so the shape matches what real entities publish.
func IdPDocument(t testing.TB, entityID string) *etree.Document {
	t.Helper()

	descriptor := saml.EntityDescriptor{
		EntityID: entityID,
		IDPSSODescriptors: []saml.IDPSSODescriptor{{
			SSODescriptor: saml.SSODescriptor{
				RoleDescriptor: saml.RoleDescriptor{
					ProtocolSupportEnumeration: "urn:oasis:names:tc:SAML:2.0:protocol",
				},
			},
			SingleSignOnServices: []saml.Endpoint{{
				Binding:  saml.HTTPRedirectBinding,
				Location: entityID + "/sso",
			}},
		}},
	}
	data, err := xml.Marshal(descriptor)
	if err != nil {
		t.Fatalf("failed to marshal entity descriptor: %v", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		t.Fatalf("failed to parse entity descriptor: %v", err)
	}
	return doc
}

// AggregateDocument builds an EntitiesDescriptor wrapping one entity
// descriptor per entity ID, with an ID attribute on the aggregate root.
func AggregateDocument(t testing.TB, entityIDs []string) *etree.Document {
	t.Helper()

	var entities string
	for _, id := range entityIDs {
		entities += fmt.Sprintf(`
  <EntityDescriptor entityID="%s">
    <IDPSSODescriptor protocolSupportEnumeration="urn:oasis:names:tc:SAML:2.0:protocol">
      <SingleSignOnService Binding="urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect" Location="%s/sso"/>
    </IDPSSODescriptor>
  </EntityDescriptor>`, id, id)
	}

	raw := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<EntitiesDescriptor xmlns="%s" ID="_aggregate" Name="Test Federation">%s
</EntitiesDescriptor>`, samlMetadataNS, entities)

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes([]byte(raw)); err != nil {
		t.Fatalf("failed to parse aggregate metadata: %v", err)
	}
	return doc
}

// Document parses raw XML into a document, failing the test on error.
func Document(t testing.TB, raw string) *etree.Document {
	t.Helper()

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes([]byte(raw)); err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	return doc
}

// generateSelfSignedCert creates a self-signed certificate for signing.
func generateSelfSignedCert() (*rsa.PrivateKey, *x509.Certificate, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}

	// CreateRevocationList requires the issuer certificate to carry a
	// subject key identifier.
	spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal public key: %w", err)
	}
	ski := sha1.Sum(spki)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   "Test Metadata Signer",
			Organization: []string{"Test"},
		},
		SubjectKeyId:          ski[:],
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("create certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, nil, fmt.Errorf("parse certificate: %w", err)
	}

	return key, cert, nil
}

// generateCRL creates an empty revocation list signed by the certificate.
func generateCRL(key *rsa.PrivateKey, cert *x509.Certificate) (*x509.RevocationList, error) {
	template := x509.RevocationList{
		Number:     big.NewInt(1),
		ThisUpdate: time.Now(),
		NextUpdate: time.Now().Add(24 * time.Hour),
	}
	crlDER, err := x509.CreateRevocationList(rand.Reader, &template, cert, key)
	if err != nil {
		return nil, fmt.Errorf("create CRL: %w", err)
	}
	return x509.ParseRevocationList(crlDER)
}
