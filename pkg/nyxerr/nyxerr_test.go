package nyxerr

import (
	"testing"

	"github.com/nyxdb/nyx/pkg/querylang"
)

func TestFromQueryErrorMapsKindToCode(t *testing.T) {
	_, err := querylang.Parse("SELECT FROM")
	if err == nil {
		t.Fatal("expected parse error")
	}
	qErr, ok := err.(*querylang.Error)
	if !ok {
		t.Fatalf("expected *querylang.Error, got %T", err)
	}
	envErr := FromQueryError(qErr)
	if envErr.Code != CodeSyntax {
		t.Fatalf("expected syntax code, got %s", envErr.Code)
	}
	if envErr.Position == nil {
		t.Fatal("expected position to be set")
	}
}

func TestWrapPassesThroughExistingError(t *testing.T) {
	original := New(CodeDimensionMismatch, "dim mismatch")
	wrapped := Wrap(original, CodeSyntax)
	if wrapped != original {
		t.Fatal("expected Wrap to pass through an existing *Error unchanged")
	}
}

func TestWrapFallsBackForPlainErrors(t *testing.T) {
	wrapped := Wrap(errNotFound("missing"), CodeCollectionNotFound)
	if wrapped.Code != CodeCollectionNotFound {
		t.Fatalf("expected fallback code, got %s", wrapped.Code)
	}
}

type errNotFound string

func (e errNotFound) Error() string { return string(e) }
