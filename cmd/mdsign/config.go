package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	samlmetadatasign "github.com/philiph/saml-metadata-sign"
)

// Config is the YAML configuration for the mdsign command.
type Config struct {
	Signing      SigningConfig      `yaml:"signing"`
	Verification VerificationConfig `yaml:"verification"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// SigningConfig configures the signing profile and key material paths.
type SigningConfig struct {
	KeyPath          string `yaml:"key"`
	CertificatesPath string `yaml:"certificates"`
	CRLsPath         string `yaml:"crls"`

	Algorithm           string   `yaml:"algorithm"`
	Exclusive           *bool    `yaml:"exclusive"`
	WithComments        bool     `yaml:"with_comments"`
	InclusivePrefixList []string `yaml:"inclusive_prefix_list"`
	IDAttributeNames    []string `yaml:"id_attribute_names"`

	KeyNames        []string `yaml:"key_names"`
	IncludeKeyValue bool     `yaml:"include_key_value"`
	IncludeSubject  bool     `yaml:"include_x509_subject_name"`
	// IncludeCerts defaults to true when unset: published metadata
	// carries the signing certificate, unlike signature.DefaultProfile.
	IncludeCerts    *bool `yaml:"include_x509_certificates"`
	IncludeSerial   bool  `yaml:"include_x509_issuer_serial"`
	IncludeCRLs     bool  `yaml:"include_x509_crls"`
	KeepCarriageRet bool  `yaml:"keep_carriage_returns"`
}

// VerificationConfig configures the validator and stage policy.
type VerificationConfig struct {
	PublicKeyPath   string `yaml:"public_key"`
	CertificatePath string `yaml:"certificate"`

	BlacklistedDigests          []string `yaml:"blacklisted_digests"`
	BlacklistedSignatureMethods []string `yaml:"blacklisted_signature_methods"`
	ForbidEmptyReferences       bool     `yaml:"forbid_empty_references"`

	SignatureRequired      *bool `yaml:"signature_required"`
	ValidSignatureRequired *bool `yaml:"valid_signature_required"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// LoadConfig reads and parses the YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// SigningProfile builds a signing profile from the config, starting
// from the defaults and overriding only what the config sets.
func (c *Config) SigningProfile() (samlmetadatasign.Profile, error) {
	profile := samlmetadatasign.DefaultProfile()

	if c.Signing.Algorithm != "" {
		var v samlmetadatasign.SHAVariant
		if err := v.UnmarshalText([]byte(c.Signing.Algorithm)); err != nil {
			return profile, err
		}
		profile.SHAVariant = v
	}
	if c.Signing.Exclusive != nil {
		profile.C14NExclusive = *c.Signing.Exclusive
	}
	profile.C14NWithComments = c.Signing.WithComments
	if len(c.Signing.InclusivePrefixList) > 0 {
		profile.InclusivePrefixList = c.Signing.InclusivePrefixList
	}
	if len(c.Signing.IDAttributeNames) > 0 {
		profile.IDAttributeNames = c.Signing.IDAttributeNames
	}

	profile.KeyNames = c.Signing.KeyNames
	profile.IncludeKeyNames = len(c.Signing.KeyNames) > 0
	profile.IncludeKeyValue = c.Signing.IncludeKeyValue
	profile.IncludeX509SubjectName = c.Signing.IncludeSubject
	profile.IncludeX509Certificates = c.Signing.IncludeCerts == nil || *c.Signing.IncludeCerts
	profile.IncludeX509IssuerSerial = c.Signing.IncludeSerial
	profile.IncludeX509CRLs = c.Signing.IncludeCRLs
	profile.RemoveCRsFromSignature = !c.Signing.KeepCarriageRet
	return profile, nil
}

// SigningMaterial loads the key material named by the config.
func (c *Config) SigningMaterial() (samlmetadatasign.SigningMaterial, error) {
	var material samlmetadatasign.SigningMaterial

	if c.Signing.KeyPath == "" {
		return material, fmt.Errorf("signing.key is required")
	}
	key, err := samlmetadatasign.LoadPrivateKey(c.Signing.KeyPath)
	if err != nil {
		return material, err
	}
	material.Key = key

	if c.Signing.CertificatesPath != "" {
		certs, err := samlmetadatasign.LoadSigningCertificates(c.Signing.CertificatesPath)
		if err != nil {
			return material, err
		}
		material.Certificates = certs
	}
	if c.Signing.CRLsPath != "" {
		crls, err := samlmetadatasign.LoadCRLs(c.Signing.CRLsPath)
		if err != nil {
			return material, err
		}
		material.CRLs = crls
	}
	return material, nil
}

// VerificationMaterial loads the verification key material named by
// the config.
func (c *Config) VerificationMaterial() (samlmetadatasign.VerificationMaterial, error) {
	material := samlmetadatasign.DefaultVerificationMaterial()
	material.BlacklistedDigests = c.Verification.BlacklistedDigests
	material.BlacklistedSignatureMethods = c.Verification.BlacklistedSignatureMethods
	material.PermitEmptyReferences = !c.Verification.ForbidEmptyReferences

	switch {
	case c.Verification.PublicKeyPath != "":
		key, err := samlmetadatasign.LoadPublicKey(c.Verification.PublicKeyPath)
		if err != nil {
			return material, err
		}
		material.Key = key
	case c.Verification.CertificatePath != "":
		certs, err := samlmetadatasign.LoadSigningCertificates(c.Verification.CertificatePath)
		if err != nil {
			return material, err
		}
		material.Certificate = certs[0]
	default:
		return material, fmt.Errorf("verification.public_key or verification.certificate is required")
	}
	return material, nil
}
