// Package samlmetadatasign signs and validates enveloped XML digital
// signatures on SAML metadata documents as part of a metadata
// aggregation pipeline.
package samlmetadatasign
