package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"vahire/internal/domain"
	"vahire/internal/domain/account"
	"vahire/internal/domain/contract"
	"vahire/internal/domain/payment"
	"vahire/internal/notify"
	"vahire/internal/repository"
	"vahire/internal/usecase"
)

// Target names what a payment is for. At least one id must be set; they must all lead to the same contract.
type Target struct {
	JobID       *uuid.UUID
	ContractID  *uuid.UUID
	MilestoneID *uuid.UUID
}

type CreateInput struct {
	Target
	TransactionRef string
	Amount         decimal.Decimal
	Currency       string
	Description    string
}

type IntentInput struct {
	Target
	Amount      decimal.Decimal
	Currency    string
	Description string
}

type IntentResult struct {
	Payment      payment.Payment
	ClientSecret string
}

type Service struct {
	store    repository.Store
	provider payment.Provider
	fees     payment.FeePolicy
	currency string
	sink     notify.Sink
	rec      usecase.Recorder
	logger   *zap.Logger
	now      func() time.Time

	settler payment.Settler
}

func NewService(store repository.Store, provider payment.Provider, fees payment.FeePolicy, currency string, sink notify.Sink, rec usecase.Recorder, logger *zap.Logger) *Service {
	if sink == nil {
		sink = notify.Nop{}
	}
	if rec == nil {
		rec = usecase.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = "USD"
	}
	return &Service{store: store, provider: provider, fees: fees, currency: currency, sink: sink, rec: rec, logger: logger, now: time.Now}
}

// EnableSettlement lets admins finish pending payments through settler. Only wired when the provider is the
// in-process sandbox.
func (s *Service) EnableSettlement(settler payment.Settler) {
	s.settler = settler
}

func (s *Service) SettlementEnabled() bool {
	return s.settler != nil
}

// Settle drives the provider side of a pending payment to intentStatus, then confirms it like any other
// payment.
func (s *Service) Settle(ctx context.Context, actor account.Actor, id uuid.UUID, intentStatus string) (payment.Payment, error) {
	if !actor.IsAdmin() {
		return payment.Payment{}, domain.Forbidden("settlement is admin only")
	}
	if s.settler == nil {
		return payment.Payment{}, domain.Conflict(domain.CodeInvalidTransition, "payment settlement is not available for this provider")
	}
	if _, final := payment.SettledStatus(intentStatus); !final {
		return payment.Payment{}, domain.Validation(domain.CodeInvalidStatus, "intent status must be %s, %s or %s",
			payment.IntentSucceeded, payment.IntentFailed, payment.IntentCanceled)
	}

	p, err := s.store.Payments().GetByID(ctx, id)
	if err != nil {
		return payment.Payment{}, err
	}
	if p.Status != payment.StatusPending {
		return payment.Payment{}, domain.Conflict(domain.CodeInvalidTransition, "payment is %s", p.Status)
	}
	if err := s.settler.Settle(ctx, p.TransactionRef, p.Amount, p.Currency, intentStatus); err != nil {
		return payment.Payment{}, err
	}
	s.logger.Info("payment settled out of band",
		zap.String("payment_id", p.ID.String()),
		zap.String("intent_status", intentStatus),
	)
	return s.Confirm(ctx, actor, id)
}

// CreateIntent opens a provider intent for the contract's company and records the pending payment under the
// intent id. The provider is called before any row is written.
func (s *Service) CreateIntent(ctx context.Context, actor account.Actor, in IntentInput) (IntentResult, error) {
	c, err := s.resolveContract(ctx, in.Target)
	if err != nil {
		return IntentResult{}, err
	}
	if err := s.requirePayer(ctx, actor, c); err != nil {
		return IntentResult{}, err
	}
	currency, err := s.normalize(in.Amount, in.Currency)
	if err != nil {
		return IntentResult{}, err
	}

	intent, err := s.provider.CreateIntent(ctx, in.Amount, currency)
	if err != nil {
		return IntentResult{}, err
	}

	p, err := s.insert(ctx, c, in.Target, intent.ID, in.Amount, currency, in.Description)
	if err != nil {
		return IntentResult{}, err
	}
	return IntentResult{Payment: p, ClientSecret: intent.ClientSecret}, nil
}

// Create records a pending payment under a caller-supplied provider reference. The reference is the
// idempotency key: reusing it fails with DuplicateTransactionReference and writes nothing.
func (s *Service) Create(ctx context.Context, actor account.Actor, in CreateInput) (payment.Payment, error) {
	ref := strings.TrimSpace(in.TransactionRef)
	if ref == "" {
		return payment.Payment{}, domain.Validation(domain.CodeInvalidInput, "transaction_reference is required")
	}
	currency, err := s.normalize(in.Amount, in.Currency)
	if err != nil {
		return payment.Payment{}, err
	}
	c, err := s.resolveContract(ctx, in.Target)
	if err != nil {
		return payment.Payment{}, err
	}
	if err := s.requirePayer(ctx, actor, c); err != nil {
		return payment.Payment{}, err
	}
	return s.insert(ctx, c, in.Target, ref, in.Amount, currency, in.Description)
}

// Confirm asks the provider how the payment's intent ended and settles a pending payment accordingly. While
// the provider is still working the payment is returned unchanged.
func (s *Service) Confirm(ctx context.Context, actor account.Actor, id uuid.UUID) (payment.Payment, error) {
	p, err := s.store.Payments().GetByID(ctx, id)
	if err != nil {
		return payment.Payment{}, err
	}
	if err := s.requireParticipant(actor, p); err != nil {
		return payment.Payment{}, err
	}
	if p.Status != payment.StatusPending {
		return p, nil
	}

	intent, err := s.provider.GetIntent(ctx, p.TransactionRef)
	if errors.Is(err, domain.ErrNotFound) {
		return payment.Payment{}, domain.Conflict(domain.CodeUnknownProviderReference,
			"provider has no record of transaction %s yet", p.TransactionRef)
	}
	if err != nil {
		return payment.Payment{}, err
	}
	to, settled := payment.SettledStatus(intent.Status)
	if !settled {
		return p, nil
	}

	ok, err := s.store.Payments().UpdateStatusFrom(ctx, p.ID, payment.StatusPending, to)
	if err != nil {
		return payment.Payment{}, err
	}
	if !ok {
		// Someone else settled it first; report what they wrote.
		return s.store.Payments().GetByID(ctx, id)
	}
	p.Status = to
	p.UpdatedAt = s.now().UTC()

	s.rec.Payment(p.Currency, string(p.Status), p.Amount)
	ev := notify.NewEvent(notify.EventPaymentSettled, map[string]any{
		"payment_id": p.ID.String(),
		"status":     string(p.Status),
		"amount":     p.Amount.String(),
		"currency":   p.Currency,
	})
	s.sink.Notify(ctx, p.PayerAccountID, ev)
	s.sink.Notify(ctx, p.ReceiverAccountID, ev)
	return p, nil
}

// RecordRefund adds a refund to a succeeded payment. Refunds accumulate and never exceed the amount paid; a
// rejected refund leaves the payment untouched.
func (s *Service) RecordRefund(ctx context.Context, actor account.Actor, id uuid.UUID, amount decimal.Decimal, refundedAt *time.Time) (payment.Payment, error) {
	var out payment.Payment
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Payments().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && actor.AccountID != p.PayerAccountID {
			return domain.Forbidden("only the payer or an admin may record a refund")
		}
		at := s.now()
		if refundedAt != nil {
			at = *refundedAt
		}
		if out, err = p.Refund(amount, at); err != nil {
			return err
		}
		return tx.Payments().UpdateRefund(ctx, out)
	})
	if err != nil {
		return payment.Payment{}, err
	}

	if out.Status == payment.StatusRefunded {
		s.rec.Payment(out.Currency, string(out.Status), out.Amount)
	}
	ev := notify.NewEvent(notify.EventPaymentRefunded, map[string]any{
		"payment_id":    out.ID.String(),
		"refund_amount": amount.String(),
		"total_refund":  out.RefundAmount.String(),
		"status":        string(out.Status),
	})
	s.sink.Notify(ctx, out.PayerAccountID, ev)
	s.sink.Notify(ctx, out.ReceiverAccountID, ev)
	return out, nil
}

// TotalByAccount returns the gross amount of every payment the account has made, read from the running total.
func (s *Service) TotalByAccount(ctx context.Context, actor account.Actor, accountID uuid.UUID) (decimal.Decimal, error) {
	if !actor.IsAdmin() && actor.AccountID != accountID {
		return decimal.Zero, domain.Forbidden("totals are visible to the account and admins only")
	}
	return s.store.Payments().TotalByPayer(ctx, accountID)
}

func (s *Service) Get(ctx context.Context, actor account.Actor, id uuid.UUID) (payment.Payment, error) {
	p, err := s.store.Payments().GetByID(ctx, id)
	if err != nil {
		return payment.Payment{}, err
	}
	if err := s.requireParticipant(actor, p); err != nil {
		return payment.Payment{}, err
	}
	return p, nil
}

func (s *Service) ListByContract(ctx context.Context, actor account.Actor, contractID uuid.UUID) ([]payment.Payment, error) {
	c, err := s.store.Contracts().GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if _, err := usecase.ContractSide(ctx, s.store, actor, c); err != nil {
		return nil, err
	}
	return s.store.Payments().ListByContract(ctx, contractID)
}

func (s *Service) insert(ctx context.Context, c contract.Contract, t Target, ref string, amount decimal.Decimal, currency, description string) (payment.Payment, error) {
	payer, receiver, err := usecase.PartyAccounts(ctx, s.store, c.CompanyProfileID, c.VAProfileID)
	if err != nil {
		return payment.Payment{}, err
	}

	fees := s.fees.Compute(amount)
	now := s.now().UTC()
	contractID := c.ID
	p := payment.Payment{
		ID:                uuid.New(),
		JobID:             t.JobID,
		ContractID:        &contractID,
		MilestoneID:       t.MilestoneID,
		PayerAccountID:    payer,
		ReceiverAccountID: receiver,
		TransactionRef:    ref,
		Amount:            amount,
		Currency:          currency,
		PlatformFeeRate:   fees.PlatformRate,
		PlatformFee:       fees.Platform,
		ProviderFee:       fees.Provider,
		Status:            payment.StatusPending,
		RefundAmount:      decimal.Zero,
		Description:       strings.TrimSpace(description),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Payments().Create(ctx, p); err != nil {
			return err
		}
		return tx.Payments().AddToPayerTotal(ctx, payer, amount)
	})
	if err != nil {
		return payment.Payment{}, err
	}

	s.rec.Payment(p.Currency, string(p.Status), p.Amount)
	s.sink.Notify(ctx, receiver, notify.NewEvent(notify.EventPaymentCreated, map[string]any{
		"payment_id":  p.ID.String(),
		"contract_id": c.ID.String(),
		"amount":      p.Amount.String(),
		"currency":    p.Currency,
	}))
	return p, nil
}

// resolveContract finds the contract a payment target belongs to and checks the ids agree with each other.
func (s *Service) resolveContract(ctx context.Context, t Target) (contract.Contract, error) {
	if t.JobID == nil && t.ContractID == nil && t.MilestoneID == nil {
		return contract.Contract{}, domain.Validation(domain.CodeInvalidInput, "a payment must reference a job, contract or milestone")
	}

	var contractID uuid.UUID
	agree := func(id uuid.UUID) error {
		if contractID != uuid.Nil && contractID != id {
			return domain.Validation(domain.CodeInvalidInput, "payment references belong to different contracts")
		}
		contractID = id
		return nil
	}

	if t.ContractID != nil {
		_ = agree(*t.ContractID)
	}
	if t.JobID != nil {
		j, err := s.store.Jobs().GetByID(ctx, *t.JobID)
		if err != nil {
			return contract.Contract{}, err
		}
		if err := agree(j.ContractID); err != nil {
			return contract.Contract{}, err
		}
	}
	if t.MilestoneID != nil {
		m, err := s.store.Milestones().GetByID(ctx, *t.MilestoneID)
		if err != nil {
			return contract.Contract{}, err
		}
		if err := agree(m.ContractID); err != nil {
			return contract.Contract{}, err
		}
	}
	return s.store.Contracts().GetByID(ctx, contractID)
}

func (s *Service) requirePayer(ctx context.Context, actor account.Actor, c contract.Contract) error {
	side, err := usecase.ContractSide(ctx, s.store, actor, c)
	if err != nil {
		return err
	}
	if side != usecase.SideCompany && side != usecase.SideAdmin {
		return domain.Forbidden("only the contracting company pays")
	}
	return nil
}

func (s *Service) requireParticipant(actor account.Actor, p payment.Payment) error {
	if actor.IsAdmin() || actor.AccountID == p.PayerAccountID || actor.AccountID == p.ReceiverAccountID {
		return nil
	}
	return domain.Forbidden("not a participant in this payment")
}

func (s *Service) normalize(amount decimal.Decimal, currency string) (string, error) {
	if !amount.IsPositive() {
		return "", domain.Validation(domain.CodeInvalidInput, "amount must be positive")
	}
	if strings.TrimSpace(currency) == "" {
		return s.currency, nil
	}
	return payment.NormalizeCurrency(currency)
}
