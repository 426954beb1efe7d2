package payments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"vahire/internal/domain"
	"vahire/internal/domain/payment"
	"vahire/internal/infrastructure/paymentprovider"
	"vahire/internal/notify"
	"vahire/internal/pkg/circuitbreaker"
	"vahire/internal/repository/memory"
	"vahire/internal/usecase/usecasetest"
)

type fixture struct {
	store   *memory.Store
	sandbox *paymentprovider.Sandbox
	svc     *Service
	sink    *usecasetest.Sink
	rec     *usecasetest.Recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New(nil)
	sandbox := paymentprovider.NewSandbox()
	provider := paymentprovider.NewGuarded(sandbox, circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 2}), zap.NewNop())
	fees := payment.FeePolicy{
		PlatformRate:    decimal.RequireFromString("0.10"),
		ProviderPercent: decimal.RequireFromString("0.029"),
		ProviderFixed:   decimal.RequireFromString("0.30"),
	}
	sink := &usecasetest.Sink{}
	rec := &usecasetest.Recorder{}
	return fixture{
		store:   store,
		sandbox: sandbox,
		svc:     NewService(store, provider, fees, "USD", sink, rec, zap.NewNop()),
		sink:    sink,
		rec:     rec,
	}
}

func ref(id uuid.UUID) *uuid.UUID { return &id }

func TestCreate_FeesAndDuplicateReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := usecasetest.NewEngagement(t, f.store, 500)

	in := CreateInput{
		Target:         Target{ContractID: ref(e.Contract.ID)},
		TransactionRef: "txn_1",
		Amount:         decimal.NewFromInt(500),
	}
	p, err := f.svc.Create(ctx, e.Company.Actor, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != payment.StatusPending {
		t.Fatalf("status = %s", p.Status)
	}
	if !p.PlatformFee.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("platform fee = %s", p.PlatformFee)
	}
	if !p.ProviderFee.Equal(decimal.RequireFromString("14.80")) {
		t.Fatalf("provider fee = %s", p.ProviderFee)
	}
	if p.PayerAccountID != e.Company.Actor.AccountID || p.ReceiverAccountID != e.VA.Actor.AccountID {
		t.Fatalf("parties = %s -> %s", p.PayerAccountID, p.ReceiverAccountID)
	}
	if p.Currency != "USD" {
		t.Fatalf("currency = %s", p.Currency)
	}

	_, err = f.svc.Create(ctx, e.Company.Actor, in)
	if !errors.Is(err, domain.ErrDuplicateTransactionReference) {
		t.Fatalf("expected duplicate reference, got %v", err)
	}
	list, err := f.svc.ListByContract(ctx, e.Company.Actor, e.Contract.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one payment row, got %d", len(list))
	}

	total, err := f.svc.TotalByAccount(ctx, e.Company.Actor, e.Company.Actor.AccountID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if !total.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("total = %s", total)
	}
	if !f.sink.Received(e.VA.Actor.AccountID, notify.EventPaymentCreated) {
		t.Fatalf("expected receiver notification")
	}
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := usecasetest.NewEngagement(t, f.store, 500)
	other := usecasetest.NewEngagement(t, f.store, 200)

	tests := []struct {
		name string
		in   CreateInput
		as   string
		want error
	}{
		{"no reference", CreateInput{Target: Target{ContractID: ref(e.Contract.ID)}, Amount: decimal.NewFromInt(1)}, "company", domain.ErrValidation},
		{"no target", CreateInput{TransactionRef: "a", Amount: decimal.NewFromInt(1)}, "company", domain.ErrValidation},
		{"zero amount", CreateInput{Target: Target{ContractID: ref(e.Contract.ID)}, TransactionRef: "b", Amount: decimal.Zero}, "company", domain.ErrValidation},
		{"bad currency", CreateInput{Target: Target{ContractID: ref(e.Contract.ID)}, TransactionRef: "c", Amount: decimal.NewFromInt(1), Currency: "dollars"}, "company", domain.ErrValidation},
		{"mismatched targets", CreateInput{Target: Target{ContractID: ref(e.Contract.ID), JobID: ref(other.Job.ID)}, TransactionRef: "d", Amount: decimal.NewFromInt(1)}, "company", domain.ErrValidation},
		{"va cannot pay", CreateInput{Target: Target{JobID: ref(e.Job.ID)}, TransactionRef: "e", Amount: decimal.NewFromInt(1)}, "va", domain.ErrForbidden},
		{"other company", CreateInput{Target: Target{JobID: ref(e.Job.ID)}, TransactionRef: "f", Amount: decimal.NewFromInt(1)}, "other", domain.ErrForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			actor := e.Company.Actor
			switch tc.as {
			case "va":
				actor = e.VA.Actor
			case "other":
				actor = other.Company.Actor
			}
			_, err := f.svc.Create(ctx, actor, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestIntentAndConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := usecasetest.NewEngagement(t, f.store, 500)

	res, err := f.svc.CreateIntent(ctx, e.Company.Actor, IntentInput{
		Target: Target{JobID: ref(e.Job.ID)},
		Amount: decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("intent: %v", err)
	}
	if res.ClientSecret == "" || res.Payment.TransactionRef == "" {
		t.Fatalf("expected provider intent, got %+v", res)
	}

	p, err := f.svc.Confirm(ctx, e.Company.Actor, res.Payment.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if p.Status != payment.StatusPending {
		t.Fatalf("unsettled intent must leave payment pending, got %s", p.Status)
	}

	if err := f.sandbox.Settle(ctx, res.Payment.TransactionRef, res.Payment.Amount, res.Payment.Currency, payment.IntentSucceeded); err != nil {
		t.Fatalf("settle: %v", err)
	}
	p, err = f.svc.Confirm(ctx, e.VA.Actor, res.Payment.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if p.Status != payment.StatusSucceeded {
		t.Fatalf("status = %s", p.Status)
	}
	if f.sink.Count(notify.EventPaymentSettled) != 2 {
		t.Fatalf("expected both parties notified")
	}

	// A second confirm is a no-op.
	p, err = f.svc.Confirm(ctx, e.Company.Actor, res.Payment.ID)
	if err != nil || p.Status != payment.StatusSucceeded {
		t.Fatalf("replay confirm: %v %s", err, p.Status)
	}
	if f.sink.Count(notify.EventPaymentSettled) != 2 {
		t.Fatalf("replayed confirm must not notify again")
	}
}

func TestCreateIntent_ProviderDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := usecasetest.NewEngagement(t, f.store, 500)
	f.sandbox.SetUnavailable(true)

	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateIntent(ctx, e.Company.Actor, IntentInput{
			Target: Target{ContractID: ref(e.Contract.ID)},
			Amount: decimal.NewFromInt(10),
		})
		if !errors.Is(err, domain.ErrDependency) {
			t.Fatalf("call %d: expected dependency error, got %v", i, err)
		}
	}

	list, err := f.svc.ListByContract(ctx, e.Company.Actor, e.Contract.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("provider failure must not write a payment, got %d", len(list))
	}
}

func TestRecordRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := usecasetest.NewEngagement(t, f.store, 500)

	res, err := f.svc.CreateIntent(ctx, e.Company.Actor, IntentInput{Target: Target{ContractID: ref(e.Contract.ID)}, Amount: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("intent: %v", err)
	}

	_, err = f.svc.RecordRefund(ctx, e.Company.Actor, res.Payment.ID, decimal.NewFromInt(10), nil)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("pending payments are not refundable, got %v", err)
	}

	if err := f.sandbox.Settle(ctx, res.Payment.TransactionRef, res.Payment.Amount, res.Payment.Currency, payment.IntentSucceeded); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := f.svc.Confirm(ctx, e.Company.Actor, res.Payment.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, err := f.svc.RecordRefund(ctx, e.VA.Actor, res.Payment.ID, decimal.NewFromInt(10), nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("receiver cannot record refunds, got %v", err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p, err := f.svc.RecordRefund(ctx, e.Company.Actor, res.Payment.ID, decimal.NewFromInt(60), &at)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if p.Status != payment.StatusSucceeded || !p.RefundAmount.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("partial refund = %s %s", p.Status, p.RefundAmount)
	}

	_, err = f.svc.RecordRefund(ctx, e.Company.Actor, res.Payment.ID, decimal.NewFromInt(41), nil)
	if !errors.Is(err, domain.ErrRefundExceedsPayment) {
		t.Fatalf("expected RefundExceedsPayment, got %v", err)
	}
	unchanged, err := f.svc.Get(ctx, e.Company.Actor, res.Payment.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !unchanged.RefundAmount.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("rejected refund changed the payment: %s", unchanged.RefundAmount)
	}

	p, err = f.svc.RecordRefund(ctx, usecasetest.Admin(), res.Payment.ID, decimal.NewFromInt(40), nil)
	if err != nil {
		t.Fatalf("final refund: %v", err)
	}
	if p.Status != payment.StatusRefunded {
		t.Fatalf("status = %s", p.Status)
	}
}

func TestRecordRefund_ConcurrentNeverExceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := usecasetest.NewEngagement(t, f.store, 500)

	p, err := f.svc.Create(ctx, e.Company.Actor, CreateInput{Target: Target{ContractID: ref(e.Contract.ID)}, TransactionRef: "txn_c", Amount: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.store.Payments().UpdateStatusFrom(ctx, p.ID, payment.StatusPending, payment.StatusSucceeded); err != nil {
		t.Fatalf("settle: %v", err)
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.RecordRefund(ctx, e.Company.Actor, p.ID, decimal.NewFromInt(30), nil); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ok != 3 {
		t.Fatalf("expected exactly 3 refunds of 30 to fit into 100, got %d", ok)
	}
	got, err := f.svc.Get(ctx, e.Company.Actor, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.RefundAmount.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("refund total = %s", got.RefundAmount)
	}
}

func TestTotalByAccount_Visibility(t *testing.T) {
	f := newFixture(t)
	e := usecasetest.NewEngagement(t, f.store, 500)

	_, err := f.svc.TotalByAccount(context.Background(), e.VA.Actor, e.Company.Actor.AccountID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	total, err := f.svc.TotalByAccount(context.Background(), usecasetest.Admin(), e.Company.Actor.AccountID)
	if err != nil || !total.IsZero() {
		t.Fatalf("admin total = %s %v", total, err)
	}
}

func TestConfirm_UnknownProviderReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := usecasetest.NewEngagement(t, f.store, 500)

	p, err := f.svc.Create(ctx, e.Company.Actor, CreateInput{
		Target:         Target{ContractID: ref(e.Contract.ID)},
		TransactionRef: "ch_external_1",
		Amount:         decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.Confirm(ctx, e.Company.Actor, p.ID)
	if !errors.Is(err, domain.ErrUnknownProviderReference) {
		t.Fatalf("expected unknown provider reference conflict, got %v", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("an existing payment must not be reported as not found")
	}
}

func TestSettle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := usecasetest.NewEngagement(t, f.store, 500)
	admin := usecasetest.Admin()

	p, err := f.svc.Create(ctx, e.Company.Actor, CreateInput{
		Target:         Target{ContractID: ref(e.Contract.ID)},
		TransactionRef: "ch_external_2",
		Amount:         decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.Settle(ctx, admin, p.ID, payment.IntentSucceeded); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("settlement must be disabled until enabled, got %v", err)
	}
	f.svc.EnableSettlement(f.sandbox)

	if _, err := f.svc.Settle(ctx, e.Company.Actor, p.ID, payment.IntentSucceeded); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("company cannot settle, got %v", err)
	}
	if _, err := f.svc.Settle(ctx, admin, p.ID, payment.IntentProcessing); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("non-final status must be rejected, got %v", err)
	}

	got, err := f.svc.Settle(ctx, admin, p.ID, payment.IntentSucceeded)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if got.Status != payment.StatusSucceeded {
		t.Fatalf("status = %s", got.Status)
	}
	if _, err := f.svc.Settle(ctx, admin, p.ID, payment.IntentFailed); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("settled payments cannot be settled again, got %v", err)
	}

	refunded, err := f.svc.RecordRefund(ctx, e.Company.Actor, p.ID, decimal.NewFromInt(500), nil)
	if err != nil {
		t.Fatalf("refund after settlement: %v", err)
	}
	if refunded.Status != payment.StatusRefunded {
		t.Fatalf("status = %s", refunded.Status)
	}
}
