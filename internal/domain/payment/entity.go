package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusSucceeded, StatusFailed},
	StatusSucceeded: {StatusRefunded},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Payment struct {
	ID                uuid.UUID
	JobID             *uuid.UUID
	ContractID        *uuid.UUID
	MilestoneID       *uuid.UUID
	PayerAccountID    uuid.UUID
	ReceiverAccountID uuid.UUID
	TransactionRef    string
	Amount            decimal.Decimal
	Currency          string
	PlatformFeeRate   decimal.Decimal
	PlatformFee       decimal.Decimal
	ProviderFee       decimal.Decimal
	Status            Status
	RefundAmount      decimal.Decimal
	RefundedAt        *time.Time
	Description       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (p Payment) NetAmount() decimal.Decimal {
	return p.Amount.Sub(p.PlatformFee).Sub(p.ProviderFee)
}

func (p Payment) Refundable() decimal.Decimal {
	return p.Amount.Sub(p.RefundAmount)
}

// Refund records a (possibly partial) refund. The cumulative refund never exceeds the original amount; a
// payment refunded in full moves to refunded.
func (p Payment) Refund(amount decimal.Decimal, at time.Time) (Payment, error) {
	if !amount.IsPositive() {
		return p, domain.Validation(domain.CodeInvalidInput, "refund amount must be positive")
	}
	if p.Status != StatusSucceeded {
		return p, domain.Conflict(domain.CodeInvalidTransition, "only succeeded payments can be refunded, payment is %s", p.Status)
	}
	if amount.GreaterThan(p.Refundable()) {
		return p, domain.Conflict(domain.CodeRefundExceedsPayment,
			"refund %s exceeds refundable %s", amount.String(), p.Refundable().String())
	}
	at = at.UTC()
	p.RefundAmount = p.RefundAmount.Add(amount)
	p.RefundedAt = &at
	p.UpdatedAt = at
	if p.RefundAmount.Equal(p.Amount) {
		p.Status = StatusRefunded
	}
	return p, nil
}

type FeePolicy struct {
	PlatformRate    decimal.Decimal
	ProviderPercent decimal.Decimal
	ProviderFixed   decimal.Decimal
}

type Fees struct {
	PlatformRate decimal.Decimal
	Platform     decimal.Decimal
	Provider     decimal.Decimal
}

// Compute derives both fees from the gross amount. The result is stored on the payment and never recomputed.
func (f FeePolicy) Compute(amount decimal.Decimal) Fees {
	return Fees{
		PlatformRate: f.PlatformRate,
		Platform:     amount.Mul(f.PlatformRate).Round(2),
		Provider:     amount.Mul(f.ProviderPercent).Add(f.ProviderFixed).Round(2),
	}
}

func NormalizeCurrency(c string) (string, error) {
	c = strings.ToUpper(strings.TrimSpace(c))
	if len(c) != 3 {
		return "", domain.Validation(domain.CodeInvalidInput, "currency must be a 3-letter code")
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", domain.Validation(domain.CodeInvalidInput, "currency must be a 3-letter code")
		}
	}
	return c, nil
}

const (
	IntentRequiresPayment = "requires_payment"
	IntentProcessing      = "processing"
	IntentSucceeded       = "succeeded"
	IntentFailed          = "failed"
	IntentCanceled        = "canceled"
)

// Intent is the provider-side view of a payment. Only these fields are interpreted.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
	Status       string
}

// SettledStatus maps a provider intent status to a final payment status, reporting false while unsettled.
func SettledStatus(intentStatus string) (Status, bool) {
	switch intentStatus {
	case IntentSucceeded:
		return StatusSucceeded, true
	case IntentFailed, IntentCanceled:
		return StatusFailed, true
	default:
		return "", false
	}
}

type Provider interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (Intent, error)
	GetIntent(ctx context.Context, id string) (Intent, error)
}

// Settler is implemented by providers whose intents can be finished out of band, like the sandbox. Settling a
// reference the provider has never seen records it with the given amount and currency.
type Settler interface {
	Settle(ctx context.Context, id string, amount decimal.Decimal, currency, status string) error
}
