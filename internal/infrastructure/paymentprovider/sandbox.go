// Package paymentprovider holds payment.Provider adapters.
package paymentprovider

import (
	"context"
	"errors"
	"sync"

	"vahire/internal/domain"
	"vahire/internal/domain/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrSandboxUnavailable = errors.New("sandbox provider unavailable")

// Sandbox is an in-process provider. Intents stay in requires_payment until Settle moves them.
type Sandbox struct {
	mu          sync.Mutex
	intents     map[string]payment.Intent
	unavailable bool
}

func NewSandbox() *Sandbox {
	return &Sandbox{intents: map[string]payment.Intent{}}
}

func (s *Sandbox) CreateIntent(_ context.Context, amount decimal.Decimal, currency string) (payment.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return payment.Intent{}, ErrSandboxUnavailable
	}
	id := "pi_" + uuid.NewString()
	in := payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString(),
		Amount:       amount,
		Currency:     currency,
		Status:       payment.IntentRequiresPayment,
	}
	s.intents[id] = in
	return in, nil
}

func (s *Sandbox) GetIntent(_ context.Context, id string) (payment.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return payment.Intent{}, ErrSandboxUnavailable
	}
	in, ok := s.intents[id]
	if !ok {
		return payment.Intent{}, domain.NotFound(domain.CodeNotFound, "payment intent %s not found", id)
	}
	return in, nil
}

// Settle sets the provider-side status of an intent, standing in for the provider finishing the charge. A
// reference created outside the sandbox is adopted with the given amount and currency.
func (s *Sandbox) Settle(_ context.Context, id string, amount decimal.Decimal, currency, status string) error {
	if id == "" {
		return domain.Validation(domain.CodeInvalidInput, "intent id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return ErrSandboxUnavailable
	}
	in, ok := s.intents[id]
	if !ok {
		in = payment.Intent{ID: id, Amount: amount, Currency: currency}
	}
	in.Status = status
	s.intents[id] = in
	return nil
}

// SetUnavailable makes every call fail until it is cleared.
func (s *Sandbox) SetUnavailable(v bool) {
	s.mu.Lock()
	s.unavailable = v
	s.mu.Unlock()
}
