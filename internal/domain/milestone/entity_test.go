package milestone

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"vahire/internal/domain"
)

func TestTransition_StrictOrder(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := Milestone{Status: StatusPending, CreatedAt: created}

	if _, err := m.Transition(StatusApproved, nil, nil, created.Add(time.Hour)); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("skipping completed must fail, got %v", err)
	}

	done, err := m.Transition(StatusCompleted, nil, nil, created.Add(time.Hour))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(created.Add(time.Hour)) {
		t.Fatalf("completed_at = %v", done.CompletedAt)
	}

	approved, err := done.Transition(StatusApproved, nil, nil, created.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := approved.Transition(StatusCompleted, nil, nil, created.Add(3*time.Hour)); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("backward transition must fail, got %v", err)
	}
	if _, err := approved.Transition(StatusPending, nil, nil, created.Add(3*time.Hour)); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("backward transition must fail, got %v", err)
	}
}

func TestTransition_ApprovedBeforeCompletedRejected(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	completed := created.Add(4 * time.Hour)
	m := Milestone{Status: StatusCompleted, CreatedAt: created, CompletedAt: &completed}

	early := completed.Add(-time.Minute)
	_, err := m.Transition(StatusApproved, nil, &early, completed.Add(time.Hour))
	if !errors.Is(err, domain.ErrValidation) || domain.CodeOf(err) != domain.CodeInvalidTimestamps {
		t.Fatalf("expected InvalidTimestamps, got %v", err)
	}
}

func TestCheckBudget(t *testing.T) {
	total := decimal.NewFromInt(500)
	if err := CheckBudget(total, decimal.NewFromInt(300), decimal.NewFromInt(200)); err != nil {
		t.Fatalf("exact fit must pass: %v", err)
	}
	if err := CheckBudget(total, decimal.NewFromInt(300), decimal.NewFromInt(201)); !errors.Is(err, domain.ErrMilestoneBudgetExceeded) {
		t.Fatalf("expected budget exceeded, got %v", err)
	}
	if err := CheckBudget(total, decimal.Zero, decimal.Zero); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation for zero amount, got %v", err)
	}
}
