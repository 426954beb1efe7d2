package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"vahire/internal/domain"
	"vahire/internal/domain/contract"
	"vahire/internal/domain/proposal"
	"vahire/internal/notify"
	"vahire/internal/pkg/docschema"
	"vahire/internal/repository/memory"
	"vahire/internal/usecase/engagement"
	"vahire/internal/usecase/usecasetest"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	docs, err := docschema.New()
	if err != nil {
		t.Fatalf("docschema: %v", err)
	}
	store := memory.New(nil)
	eng := engagement.NewService(store, docs, notify.Nop{}, &usecasetest.Recorder{}, "USD", zap.NewNop())
	return NewService(store, eng, zap.NewNop()), store
}

// unformed stores an accepted proposal that never got its contract.
func unformed(t *testing.T, store *memory.Store) proposal.Proposal {
	t.Helper()
	ctx := context.Background()
	company := usecasetest.NewCompany(t, store)
	va := usecasetest.NewVA(t, store)
	post := usecasetest.NewPosting(t, store, company, 400)
	now := time.Now().UTC()
	p := proposal.Proposal{
		ID:           uuid.New(),
		JobPostingID: post.ID,
		VAProfileID:  va.Profile.ID,
		BidType:      proposal.BidFixed,
		BidAmount:    decimal.NewFromInt(400),
		Status:       proposal.StatusAccepted,
		RespondedAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Proposals().Create(ctx, p); err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	if err := store.Postings().IncrementProposalCount(ctx, post.ID); err != nil {
		t.Fatalf("count: %v", err)
	}
	return p
}

func TestReport_AdminOnly(t *testing.T) {
	svc, store := newService(t)
	company := usecasetest.NewCompany(t, store)

	_, err := svc.Report(context.Background(), company.Actor, 0)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestReport_CleanStore(t *testing.T) {
	svc, store := newService(t)
	usecasetest.NewEngagement(t, store, 500)

	r, err := svc.Report(context.Background(), usecasetest.Admin(), 10)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !r.Clean() {
		t.Fatalf("expected clean report, got %+v", r)
	}
	if r.GeneratedAt.IsZero() {
		t.Fatalf("expected generated_at")
	}
}

func TestRepairCounters(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	e := usecasetest.NewEngagement(t, store, 500)
	for i := 0; i < 2; i++ {
		if err := store.Postings().IncrementProposalCount(ctx, e.Posting.ID); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	r, err := svc.Report(ctx, usecasetest.Admin(), 10)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(r.CounterDrift) != 1 || r.CounterDrift[0].Recorded != 3 || r.CounterDrift[0].Actual != 1 {
		t.Fatalf("unexpected drift: %+v", r.CounterDrift)
	}

	fixed, err := svc.RepairCounters(ctx, usecasetest.Admin())
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if len(fixed) != 1 {
		t.Fatalf("expected one repaired counter, got %d", len(fixed))
	}
	post, err := store.Postings().GetByID(ctx, e.Posting.ID)
	if err != nil {
		t.Fatalf("get posting: %v", err)
	}
	if post.ProposalCount != 1 {
		t.Fatalf("proposal_count = %d", post.ProposalCount)
	}
}

func TestRepairFormations(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	p := unformed(t, store)

	// A contract whose job was never created.
	e := usecasetest.NewEngagement(t, store, 300)
	post, err := store.Postings().GetByID(ctx, e.Posting.ID)
	if err != nil {
		t.Fatalf("get posting: %v", err)
	}
	orphanProposal := e.Proposal
	orphanProposal.ID = uuid.New()
	if err := store.Proposals().Create(ctx, orphanProposal); err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	if err := store.Postings().IncrementProposalCount(ctx, post.ID); err != nil {
		t.Fatalf("count: %v", err)
	}
	orphan, err := contract.New(orphanProposal, post, "USD", time.Now().UTC())
	if err != nil {
		t.Fatalf("new contract: %v", err)
	}
	if err := store.Contracts().Create(ctx, orphan); err != nil {
		t.Fatalf("create contract: %v", err)
	}

	r, err := svc.Report(ctx, usecasetest.Admin(), 10)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(r.UnformedProposals) != 1 || r.UnformedProposals[0].ProposalID != p.ID {
		t.Fatalf("unformed = %+v", r.UnformedProposals)
	}
	if len(r.ContractsWithoutJob) != 1 || r.ContractsWithoutJob[0].ContractID != orphan.ID {
		t.Fatalf("without job = %+v", r.ContractsWithoutJob)
	}

	out, err := svc.RepairFormations(ctx, usecasetest.Admin())
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if out.ContractsFormed != 1 || out.JobsCreated != 1 {
		t.Fatalf("repair = %+v", out)
	}

	r, err = svc.Report(ctx, usecasetest.Admin(), 10)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !r.Clean() {
		t.Fatalf("expected clean report after repair, got %+v", r)
	}
}

func TestRepair_PagesThroughEveryFinding(t *testing.T) {
	svc, store := newService(t)
	svc.page = 2
	ctx := context.Background()

	company := usecasetest.NewCompany(t, store)
	for i := 0; i < 5; i++ {
		post := usecasetest.NewPosting(t, store, company, 300)
		if err := store.Postings().IncrementProposalCount(ctx, post.ID); err != nil {
			t.Fatalf("increment: %v", err)
		}
		unformed(t, store)
	}

	fixed, err := svc.RepairCounters(ctx, usecasetest.Admin())
	if err != nil {
		t.Fatalf("repair counters: %v", err)
	}
	if len(fixed) != 5 {
		t.Fatalf("repaired %d counters, want 5", len(fixed))
	}
	out, err := svc.RepairFormations(ctx, usecasetest.Admin())
	if err != nil {
		t.Fatalf("repair formations: %v", err)
	}
	if out.ContractsFormed != 5 {
		t.Fatalf("repair = %+v", out)
	}

	r, err := svc.Report(ctx, usecasetest.Admin(), 10)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !r.Clean() {
		t.Fatalf("expected clean report, got %+v", r)
	}
}

func TestDrain_StopsOnItemsThatKeepFailing(t *testing.T) {
	ctx := context.Background()
	stuck := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	errStuck := errors.New("stuck")

	calls := 0
	list := func(_ context.Context, limit int) ([]uuid.UUID, error) {
		calls++
		if limit < len(stuck) {
			return stuck[:limit], nil
		}
		return stuck, nil
	}
	var handled []uuid.UUID
	err := drain(ctx, 2, list, func(id uuid.UUID) uuid.UUID { return id }, func(ids []uuid.UUID) error {
		handled = append(handled, ids...)
		return errStuck
	})
	if !errors.Is(err, errStuck) {
		t.Fatalf("expected joined failure, got %v", err)
	}
	if len(handled) != 2 || calls != 2 {
		t.Fatalf("handled=%d calls=%d", len(handled), calls)
	}
}
