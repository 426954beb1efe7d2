package timesheet

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain"
)

var tolerance = decimal.RequireFromString("0.01")

func TestValidateHours(t *testing.T) {
	date := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	start, end, err := ClockRange(date, "09:00", "13:00")
	if err != nil {
		t.Fatalf("clock range: %v", err)
	}

	four := decimal.NewFromInt(4)
	almost := decimal.RequireFromString("4.01")
	off := decimal.RequireFromString("4.5")
	zero := decimal.Zero

	cases := []struct {
		name    string
		claimed *decimal.Decimal
		code    string
	}{
		{name: "derived", claimed: nil},
		{name: "exact", claimed: &four},
		{name: "within tolerance", claimed: &almost},
		{name: "mismatch", claimed: &off, code: domain.CodeHoursMismatch},
		{name: "zero claimed", claimed: &zero, code: domain.CodeInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateHours(start, end, tc.claimed, tolerance)
			if tc.code != "" {
				if domain.CodeOf(err) != tc.code {
					t.Fatalf("expected %s, got %v", tc.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if !got.Equal(four) {
				t.Fatalf("hours = %s", got)
			}
		})
	}
}

func TestValidateHours_RejectsReversedRange(t *testing.T) {
	date := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	start, end, _ := ClockRange(date, "13:00", "09:00")
	if _, err := ValidateHours(start, end, nil, tolerance); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestComputeHours_Rounds(t *testing.T) {
	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Minute)
	if got := ComputeHours(start, end); got.String() != "1.67" {
		t.Fatalf("hours = %s", got)
	}
}

func TestApprove_OnlyOnce(t *testing.T) {
	ts := Timesheet{Status: StatusPending}
	approver := uuid.New()
	now := time.Now()

	approved, err := ts.Approve(approver, now)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != approver {
		t.Fatalf("approved_by not set")
	}
	if _, err := approved.Approve(approver, now); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}
