//go:build unit

package domain

import (
	"errors"
	"testing"

	"github.com/beevik/etree"
)

func TestItem_RootAndDocument(t *testing.T) {
	doc := etree.NewDocument()
	doc.CreateElement("EntitiesDescriptor")

	item := NewItem(doc)
	if item.Document() != doc {
		t.Error("Document should return the wrapped document")
	}
	if item.Root() == nil || item.Root().Tag != "EntitiesDescriptor" {
		t.Error("Root should return the document root")
	}
}

func TestItem_EmptyDocument(t *testing.T) {
	item := NewItem(etree.NewDocument())
	if item.Root() != nil {
		t.Error("Root should be nil for an empty document")
	}
}

func TestItem_StatusAccumulation(t *testing.T) {
	item := NewItem(etree.NewDocument())
	if item.HasErrors() {
		t.Error("fresh item should have no errors")
	}

	item.AddStatus(InfoStatus("stage-a", "processed"))
	item.AddStatus(WarningStatus("stage-b", "signature invalid"))
	if item.HasErrors() {
		t.Error("info and warning statuses are not errors")
	}

	item.AddStatus(ErrorStatus("stage-c", "not signed"))
	if !item.HasErrors() {
		t.Error("expected HasErrors after an error status")
	}

	statuses := item.Statuses()
	if len(statuses) != 3 {
		t.Fatalf("status count = %d, want 3", len(statuses))
	}
	if statuses[0].Component != "stage-a" || statuses[0].Severity != SeverityInfo {
		t.Errorf("first status = %+v", statuses[0])
	}
	if statuses[2].Message != "not signed" {
		t.Errorf("third status message = %q", statuses[2].Message)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := ServiceError("service failed", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if err.Error() != "service failed" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Code != ErrCodeServiceError {
		t.Errorf("Code = %v", err.Code)
	}
}

func TestValidationError_Kinds(t *testing.T) {
	structural := StructuralError("two signatures")
	if structural.Kind != ValidationStructural {
		t.Error("StructuralError should produce a structural kind")
	}
	if structural.Error() != "two signatures" {
		t.Errorf("Error() = %q", structural.Error())
	}

	cause := errors.New("crypto/rsa: verification error")
	cryptographic := CryptoError("signature verification failed", cause)
	if cryptographic.Kind != ValidationCryptographic {
		t.Error("CryptoError should produce a cryptographic kind")
	}
	if !errors.Is(cryptographic, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if got := cryptographic.Error(); got != "signature verification failed: crypto/rsa: verification error" {
		t.Errorf("Error() = %q", got)
	}

	var vErr *ValidationError
	if !errors.As(error(cryptographic), &vErr) {
		t.Error("expected errors.As to match *ValidationError")
	}
}
