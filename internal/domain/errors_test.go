package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesKindAndCode(t *testing.T) {
	err := Conflict(CodeDuplicatePendingProposal, "pending proposal exists")
	wrapped := fmt.Errorf("submit: %w", err)

	if !errors.Is(wrapped, ErrConflict) {
		t.Fatalf("expected conflict kind match")
	}
	if !errors.Is(wrapped, ErrDuplicatePendingProposal) {
		t.Fatalf("expected code match")
	}
	if errors.Is(wrapped, ErrRefundExceedsPayment) {
		t.Fatalf("unexpected match on a different code")
	}
	if errors.Is(wrapped, ErrValidation) {
		t.Fatalf("unexpected match on a different kind")
	}
}

func TestCodeOfAndKindOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", Validation(CodeHoursMismatch, "hours mismatch"))
	if got := CodeOf(err); got != CodeHoursMismatch {
		t.Fatalf("CodeOf = %q", got)
	}
	if got := KindOf(err); got != KindValidation {
		t.Fatalf("KindOf = %q", got)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Fatalf("KindOf(plain) = %q", got)
	}
}

func TestDependency_UnwrapsCause(t *testing.T) {
	cause := errors.New("timeout")
	err := Dependency(CodeProviderUnavailable, cause, "payment provider")
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if err.Error() != "payment provider: timeout" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
