package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCauseChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(CodeDependency, cause, "stripe unavailable")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}

	outer := fmt.Errorf("handler: %w", err)
	if typed := As(outer); typed == nil || typed.Code() != CodeDependency {
		t.Fatalf("expected typed error through std wrapping")
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
	if !meta.Retryable {
		t.Fatalf("internal errors must be retryable")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		code Code
		want bool
	}{
		{CodeValidation, false},
		{CodeConflict, false},
		{CodeStateConflict, false},
		{CodeDependency, true},
		{CodeInternal, true},
	}
	for _, tc := range cases {
		if got := IsRetryable(New(tc.code, "x")); got != tc.want {
			t.Fatalf("IsRetryable(%s)=%v want %v", tc.code, got, tc.want)
		}
	}
	if !IsRetryable(errors.New("untyped")) {
		t.Fatalf("untyped errors default to retryable")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeInternal, errors.New("root"), "top")
	dump := Dump(err)
	if dump.Code != CodeInternal {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected full unwrap chain, got %v", dump.Chain)
	}
}
