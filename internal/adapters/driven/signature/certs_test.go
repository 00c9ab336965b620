//go:build unit

package signature

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/philiph/saml-metadata-sign/testfixtures/metadata"
)

func writePEM(t *testing.T, name, blockType string, der []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadPrivateKey_PKCS1(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	path := writePEM(t, "key.pem", "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(km.Key))

	key, err := LoadPrivateKey(path)
	if err != nil {
		t.Fatalf("LoadPrivateKey: %v", err)
	}
	if !key.Equal(km.Key) {
		t.Error("loaded key does not match")
	}
}

func TestLoadPrivateKey_PKCS8(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	der, err := x509.MarshalPKCS8PrivateKey(km.Key)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey: %v", err)
	}
	path := writePEM(t, "key.pem", "PRIVATE KEY", der)

	key, err := LoadPrivateKey(path)
	if err != nil {
		t.Fatalf("LoadPrivateKey: %v", err)
	}
	if !key.Equal(km.Key) {
		t.Error("loaded key does not match")
	}
}

func TestLoadPrivateKey_WrongBlockType(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	path := writePEM(t, "cert.pem", "CERTIFICATE", km.Certificate.Raw)

	if _, err := LoadPrivateKey(path); err == nil {
		t.Error("expected error for certificate PEM")
	}
}

func TestLoadPrivateKey_MissingFile(t *testing.T) {
	if _, err := LoadPrivateKey(filepath.Join(t.TempDir(), "absent.pem")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadSigningCertificates_SingleAndChain(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	other := metadata.NewKeyMaterial(t)

	path := filepath.Join(t.TempDir(), "chain.pem")
	data := append(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: km.Certificate.Raw}),
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: other.Certificate.Raw})...)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write chain: %v", err)
	}

	certs, err := LoadSigningCertificates(path)
	if err != nil {
		t.Fatalf("LoadSigningCertificates: %v", err)
	}
	if len(certs) != 2 {
		t.Fatalf("certificate count = %d, want 2", len(certs))
	}
	if !certs[0].Equal(km.Certificate) {
		t.Error("end-entity certificate must come first")
	}
}

func TestLoadSigningCertificates_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pem")
	if err := os.WriteFile(path, []byte("not pem at all"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSigningCertificates(path); err == nil {
		t.Error("expected error for file without certificates")
	}
}

func TestLoadPublicKey_FromPKIX(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	der, err := x509.MarshalPKIXPublicKey(&km.Key.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}
	path := writePEM(t, "pub.pem", "PUBLIC KEY", der)

	key, err := LoadPublicKey(path)
	if err != nil {
		t.Fatalf("LoadPublicKey: %v", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok || !rsaKey.Equal(&km.Key.PublicKey) {
		t.Error("loaded public key does not match")
	}
}

func TestLoadPublicKey_FromCertificate(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	path := writePEM(t, "cert.pem", "CERTIFICATE", km.Certificate.Raw)

	key, err := LoadPublicKey(path)
	if err != nil {
		t.Fatalf("LoadPublicKey: %v", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok || !rsaKey.Equal(&km.Key.PublicKey) {
		t.Error("loaded public key does not match certificate key")
	}
}

func TestLoadCRLs(t *testing.T) {
	km := metadata.NewKeyMaterial(t)
	path := writePEM(t, "crl.pem", "X509 CRL", km.CRL.Raw)

	crls, err := LoadCRLs(path)
	if err != nil {
		t.Fatalf("LoadCRLs: %v", err)
	}
	if len(crls) != 1 {
		t.Fatalf("CRL count = %d, want 1", len(crls))
	}
	if crls[0].Number.Cmp(km.CRL.Number) != 0 {
		t.Error("loaded CRL number does not match")
	}
}
