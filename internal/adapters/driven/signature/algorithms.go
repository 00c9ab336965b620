package signature

import (
	"crypto"
	_ "crypto/sha1"   // register SHA-1 for crypto.Hash.New
	_ "crypto/sha256" // register SHA-256
	_ "crypto/sha512" // register SHA-384 and SHA-512
	"fmt"
	"strings"

	dsig "github.com/russellhaering/goxmldsig"
)

// SHAVariant selects the digest strength used for both the signature
// method and the reference digest. The zero value is SHA-256.
type SHAVariant int

const (
	SHA256 SHAVariant = iota
	SHA1
	SHA384
	SHA512
)

// String returns the lowercase name of the variant.
func (v SHAVariant) String() string {
	switch v {
	case SHA1:
		return "sha1"
	case SHA384:
		return "sha384"
	case SHA512:
		return "sha512"
	default:
		return "sha256"
	}
}

// UnmarshalText parses a variant name such as "sha256". Used by the
// YAML configuration layer.
func (v *SHAVariant) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "sha1", "sha-1":
		*v = SHA1
	case "sha256", "sha-256", "":
		*v = SHA256
	case "sha384", "sha-384":
		*v = SHA384
	case "sha512", "sha-512":
		*v = SHA512
	default:
		return fmt.Errorf("unknown SHA variant %q", text)
	}
	return nil
}

// Digest algorithm URIs. goxmldsig keeps its digest table unexported,
// so the URIs are spelled out here.
const (
	DigestSHA1   = "http://www.w3.org/2000/09/xmldsig#sha1"
	DigestSHA256 = "http://www.w3.org/2001/04/xmlenc#sha256"
	DigestSHA384 = "http://www.w3.org/2001/04/xmldsig-more#sha384"
	DigestSHA512 = "http://www.w3.org/2001/04/xmlenc#sha512"
)

// ECDSA signature method URIs accepted during verification. RSA method
// URIs come from goxmldsig.
const (
	ecdsaSHA1SignatureMethod   = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha1"
	ecdsaSHA256SignatureMethod = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha256"
	ecdsaSHA384SignatureMethod = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha384"
	ecdsaSHA512SignatureMethod = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha512"
)

// methods returns the RSA signature method URI, digest method URI, and
// hash for the variant.
func (v SHAVariant) methods() (sigURI, digestURI string, hash crypto.Hash) {
	switch v {
	case SHA1:
		return dsig.RSASHA1SignatureMethod, DigestSHA1, crypto.SHA1
	case SHA384:
		return dsig.RSASHA384SignatureMethod, DigestSHA384, crypto.SHA384
	case SHA512:
		return dsig.RSASHA512SignatureMethod, DigestSHA512, crypto.SHA512
	default:
		return dsig.RSASHA256SignatureMethod, DigestSHA256, crypto.SHA256
	}
}

var digestsByURI = map[string]crypto.Hash{
	DigestSHA1:   crypto.SHA1,
	DigestSHA256: crypto.SHA256,
	DigestSHA384: crypto.SHA384,
	DigestSHA512: crypto.SHA512,
}

type signatureMethod struct {
	keyKind string // "rsa" or "ecdsa"
	hash    crypto.Hash
}

var signatureMethodsByURI = map[string]signatureMethod{
	dsig.RSASHA1SignatureMethod:   {keyKind: "rsa", hash: crypto.SHA1},
	dsig.RSASHA256SignatureMethod: {keyKind: "rsa", hash: crypto.SHA256},
	dsig.RSASHA384SignatureMethod: {keyKind: "rsa", hash: crypto.SHA384},
	dsig.RSASHA512SignatureMethod: {keyKind: "rsa", hash: crypto.SHA512},
	ecdsaSHA1SignatureMethod:      {keyKind: "ecdsa", hash: crypto.SHA1},
	ecdsaSHA256SignatureMethod:    {keyKind: "ecdsa", hash: crypto.SHA256},
	ecdsaSHA384SignatureMethod:    {keyKind: "ecdsa", hash: crypto.SHA384},
	ecdsaSHA512SignatureMethod:    {keyKind: "ecdsa", hash: crypto.SHA512},
}

// canonicalization resolves the c14n mode flags to an algorithm URI and
// a canonicalizer. The prefix list only applies to exclusive c14n.
func canonicalization(exclusive, withComments bool, prefixList []string) (string, dsig.Canonicalizer) {
	prefixes := strings.Join(prefixList, " ")
	if exclusive {
		if withComments {
			return dsig.CanonicalXML10ExclusiveWithCommentsAlgorithmId.String(),
				dsig.MakeC14N10ExclusiveWithCommentsCanonicalizerWithPrefixList(prefixes)
		}
		return dsig.CanonicalXML10ExclusiveAlgorithmId.String(),
			dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList(prefixes)
	}
	if withComments {
		return dsig.CanonicalXML10WithCommentsAlgorithmId.String(),
			dsig.MakeC14N10WithCommentsCanonicalizer()
	}
	return dsig.CanonicalXML10RecAlgorithmId.String(),
		dsig.MakeC14N10RecCanonicalizer()
}

// canonicalizerForURI maps a declared algorithm URI to a canonicalizer,
// for use when verifying documents signed elsewhere.
func canonicalizerForURI(uri, prefixList string) (dsig.Canonicalizer, bool) {
	switch dsig.AlgorithmID(uri) {
	case dsig.CanonicalXML10ExclusiveAlgorithmId:
		return dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList(prefixList), true
	case dsig.CanonicalXML10ExclusiveWithCommentsAlgorithmId:
		return dsig.MakeC14N10ExclusiveWithCommentsCanonicalizerWithPrefixList(prefixList), true
	case dsig.CanonicalXML10RecAlgorithmId:
		return dsig.MakeC14N10RecCanonicalizer(), true
	case dsig.CanonicalXML10WithCommentsAlgorithmId:
		return dsig.MakeC14N10WithCommentsCanonicalizer(), true
	case dsig.CanonicalXML11AlgorithmId:
		return dsig.MakeC14N11Canonicalizer(), true
	case dsig.CanonicalXML11WithCommentsAlgorithmId:
		return dsig.MakeC14N11WithCommentsCanonicalizer(), true
	default:
		return nil, false
	}
}
