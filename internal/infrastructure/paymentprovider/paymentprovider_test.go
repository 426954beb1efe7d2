package paymentprovider

import (
	"context"
	"errors"
	"testing"
	"time"

	"vahire/internal/domain"
	"vahire/internal/domain/payment"
	"vahire/internal/pkg/circuitbreaker"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestSandbox_SettleDrivesStatus(t *testing.T) {
	s := NewSandbox()
	in, err := s.CreateIntent(context.Background(), decimal.NewFromInt(500), "USD")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if in.Status != payment.IntentRequiresPayment || in.ClientSecret == "" {
		t.Fatalf("intent = %+v", in)
	}
	if err := s.Settle(context.Background(), in.ID, in.Amount, in.Currency, payment.IntentSucceeded); err != nil {
		t.Fatalf("settle: %v", err)
	}
	got, _ := s.GetIntent(context.Background(), in.ID)
	if got.Status != payment.IntentSucceeded {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestGuarded_MapsFailuresToDependencyAndOpens(t *testing.T) {
	s := NewSandbox()
	s.SetUnavailable(true)
	g := NewGuarded(s, circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 2, Timeout: time.Hour}), zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := g.CreateIntent(context.Background(), decimal.NewFromInt(1), "USD")
		if !errors.Is(err, domain.ErrDependency) || domain.CodeOf(err) != domain.CodeProviderUnavailable {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}

	s.SetUnavailable(false)
	if _, err := g.CreateIntent(context.Background(), decimal.NewFromInt(1), "USD"); !errors.Is(err, domain.ErrDependency) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}

func TestGuarded_DomainErrorsPassThrough(t *testing.T) {
	g := NewGuarded(NewSandbox(), circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 1}), nil)

	_, err := g.GetIntent(context.Background(), "pi_missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := g.CreateIntent(context.Background(), decimal.NewFromInt(1), "USD"); err != nil {
		t.Fatalf("breaker should stay closed after a not-found: %v", err)
	}
}

func TestSandbox_SettleAdoptsUnknownReference(t *testing.T) {
	s := NewSandbox()
	ctx := context.Background()

	if err := s.Settle(ctx, "ch_external_1", decimal.NewFromInt(500), "USD", payment.IntentFailed); err != nil {
		t.Fatalf("settle: %v", err)
	}
	got, err := s.GetIntent(ctx, "ch_external_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != payment.IntentFailed || !got.Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("intent = %+v", got)
	}
	if err := s.Settle(ctx, "", decimal.Zero, "USD", payment.IntentSucceeded); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty id: err = %v", err)
	}
}
