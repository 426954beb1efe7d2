package docschema

import (
	"context"
	"errors"
	"testing"

	"vahire/internal/domain"
)

func TestValidate(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	cases := []struct {
		name    string
		doc     Document
		body    string
		wantErr bool
	}{
		{"empty is unset", MilestonesData, "", false},
		{"valid milestones", MilestonesData, `[{"title":"Setup","amount":100}]`, false},
		{"missing title", MilestonesData, `[{"amount":100}]`, true},
		{"zero amount", MilestonesData, `[{"title":"x","amount":0}]`, true},
		{"not an array", MilestonesData, `{"title":"x"}`, true},
		{"malformed json", PaymentSchedule, `[{`, true},
		{"valid schedule", PaymentSchedule, `[{"amount":250.5,"due_date":"2026-03-01"}]`, false},
		{"schedule missing due date", PaymentSchedule, `[{"amount":10}]`, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(context.Background(), tc.doc, []byte(tc.body))
			if tc.wantErr {
				if !errors.Is(err, domain.ErrValidation) || domain.CodeOf(err) != domain.CodeInvalidDocument {
					t.Fatalf("expected InvalidDocument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
}
