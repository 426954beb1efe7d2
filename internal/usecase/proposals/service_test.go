package proposals

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"vahire/internal/domain"
	"vahire/internal/domain/contract"
	"vahire/internal/domain/posting"
	"vahire/internal/domain/proposal"
	"vahire/internal/notify"
	"vahire/internal/repository/memory"
	"vahire/internal/usecase/engagement"
	"vahire/internal/usecase/usecasetest"
)

type fixture struct {
	store *memory.Store
	svc   *Service
	sink  *usecasetest.Sink
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New(nil)
	sink := &usecasetest.Sink{}
	eng := engagement.NewService(store, nil, sink, nil, "USD", zap.NewNop())
	return fixture{store: store, svc: NewService(store, eng, usecasetest.NewMapCache(), sink, nil, zap.NewNop()), sink: sink}
}

func fixedBid(amount int64) SubmitInput {
	return SubmitInput{BidType: "fixed", BidAmount: decimal.NewFromInt(amount), CoverLetter: "I can help"}
}

func proposalCount(t *testing.T, f fixture, post posting.Posting) int {
	t.Helper()
	p, err := f.store.Postings().GetByID(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("posting: %v", err)
	}
	return p.ProposalCount
}

func TestSubmit_DuplicatePendingLeavesCountUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	company := usecasetest.NewCompany(t, f.store)
	va := usecasetest.NewVA(t, f.store)
	post := usecasetest.NewPosting(t, f.store, company, 800)

	p, err := f.svc.Submit(ctx, va.Actor, post.ID, fixedBid(500))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if p.Status != proposal.StatusPending || proposalCount(t, f, post) != 1 {
		t.Fatalf("status=%s count=%d", p.Status, proposalCount(t, f, post))
	}

	if _, err := f.svc.Submit(ctx, va.Actor, post.ID, fixedBid(450)); !errors.Is(err, domain.ErrDuplicatePendingProposal) {
		t.Fatalf("expected DuplicatePendingProposal, got %v", err)
	}
	if proposalCount(t, f, post) != 1 {
		t.Fatalf("count drifted to %d", proposalCount(t, f, post))
	}
	if !f.sink.Received(company.Actor.AccountID, notify.EventProposalSubmitted) {
		t.Fatalf("company not notified")
	}
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	company := usecasetest.NewCompany(t, f.store)
	va := usecasetest.NewVA(t, f.store)
	post := usecasetest.NewPosting(t, f.store, company, 800)

	cases := []struct {
		name string
		in   SubmitInput
	}{
		{"bad bid type", SubmitInput{BidType: "barter", BidAmount: decimal.NewFromInt(1)}},
		{"zero amount", SubmitInput{BidType: "hourly", BidAmount: decimal.Zero}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Submit(ctx, va.Actor, post.ID, tc.in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation, got %v", err)
			}
		})
	}
	if _, err := f.svc.Submit(ctx, company.Actor, post.ID, fixedBid(10)); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("company must not bid, got %v", err)
	}

	unbudgeted := usecasetest.NewPosting(t, f.store, company, 0)
	if _, err := f.svc.Submit(ctx, va.Actor, unbudgeted.ID, SubmitInput{BidType: "hourly", BidAmount: decimal.NewFromInt(20)}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("hourly bid on a posting without budget, got %v", err)
	}
	if _, err := f.svc.Submit(ctx, va.Actor, unbudgeted.ID, fixedBid(200)); err != nil {
		t.Fatalf("fixed bid on a posting without budget: %v", err)
	}

	post.Status = posting.StatusClosed
	if err := f.store.Postings().Update(ctx, post); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := f.svc.Submit(ctx, va.Actor, post.ID, fixedBid(10)); domain.CodeOf(err) != domain.CodePostingNotOpen {
		t.Fatalf("expected PostingNotOpen, got %v", err)
	}
}

func TestSubmit_ConcurrentSubmissionsKeepCountExact(t *testing.T) {
	f := newFixture(t)
	company := usecasetest.NewCompany(t, f.store)
	post := usecasetest.NewPosting(t, f.store, company, 800)

	const n = 12
	vas := make([]usecasetest.VA, n)
	for i := range vas {
		vas[i] = usecasetest.NewVA(t, f.store)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		for k := 0; k < 2; k++ {
			go func(va usecasetest.VA) {
				defer wg.Done()
				_, _ = f.svc.Submit(context.Background(), va.Actor, post.ID, fixedBid(100))
			}(vas[i])
		}
	}
	wg.Wait()

	list, err := f.store.Proposals().ListByPosting(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != n || proposalCount(t, f, post) != n {
		t.Fatalf("rows=%d count=%d, want %d", len(list), proposalCount(t, f, post), n)
	}
}

func TestDecide_AcceptFormsContractAndJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	company := usecasetest.NewCompany(t, f.store)
	va := usecasetest.NewVA(t, f.store)
	sibling := usecasetest.NewVA(t, f.store)
	post := usecasetest.NewPosting(t, f.store, company, 800)

	p, err := f.svc.Submit(ctx, va.Actor, post.ID, fixedBid(500))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	other, err := f.svc.Submit(ctx, sibling.Actor, post.ID, fixedBid(400))
	if err != nil {
		t.Fatalf("submit sibling: %v", err)
	}

	if _, err := f.svc.Decide(ctx, va.Actor, p.ID, "accept", engagement.Terms{}, nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("va must not decide, got %v", err)
	}

	d, err := f.svc.Decide(ctx, company.Actor, p.ID, "accept", engagement.Terms{}, nil)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if d.Proposal.Status != proposal.StatusAccepted || d.Proposal.RespondedAt == nil {
		t.Fatalf("proposal = %+v", d.Proposal)
	}
	if d.Formed == nil || !d.Formed.Contract.Amount.Equal(decimal.NewFromInt(500)) || d.Formed.Contract.Status != contract.StatusActive {
		t.Fatalf("formed = %+v", d.Formed)
	}
	job, err := f.store.Jobs().GetByContractID(ctx, d.Formed.Contract.ID)
	if err != nil || job.ID != d.Formed.Job.ID {
		t.Fatalf("job = %+v %v", job, err)
	}

	sib, err := f.store.Proposals().GetByID(ctx, other.ID)
	if err != nil || sib.Status != proposal.StatusPending {
		t.Fatalf("sibling must stay pending: %+v %v", sib.Status, err)
	}

	if _, err := f.svc.Decide(ctx, company.Actor, p.ID, "reject", engagement.Terms{}, nil); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("decided proposal is terminal, got %v", err)
	}
	if !f.sink.Received(va.Actor.AccountID, notify.EventProposalAccepted) || !f.sink.Received(va.Actor.AccountID, notify.EventContractFormed) {
		t.Fatalf("va not notified")
	}
}

func TestDecide_ConcurrentDecisionsOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	company := usecasetest.NewCompany(t, f.store)
	va := usecasetest.NewVA(t, f.store)
	post := usecasetest.NewPosting(t, f.store, company, 800)
	p, err := f.svc.Submit(ctx, va.Actor, post.ID, fixedBid(500))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	outcomes := []string{"accept", "reject", "accept", "reject", "accept"}
	errs := make([]error, len(outcomes))
	var wg sync.WaitGroup
	for i, o := range outcomes {
		wg.Add(1)
		go func(i int, o string) {
			defer wg.Done()
			_, errs[i] = f.svc.Decide(ctx, company.Actor, p.ID, o, engagement.Terms{}, nil)
		}(i, o)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case !errors.Is(err, domain.ErrInvalidTransition):
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("%d decisions succeeded", wins)
	}

	got, err := f.store.Proposals().GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_, cerr := f.store.Contracts().GetByProposalID(ctx, p.ID)
	if (got.Status == proposal.StatusAccepted) != (cerr == nil) {
		t.Fatalf("status %s but contract lookup err = %v", got.Status, cerr)
	}
}

func TestWithdraw_ThenResubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	company := usecasetest.NewCompany(t, f.store)
	va := usecasetest.NewVA(t, f.store)
	stranger := usecasetest.NewVA(t, f.store)
	post := usecasetest.NewPosting(t, f.store, company, 800)

	p, err := f.svc.Submit(ctx, va.Actor, post.ID, fixedBid(500))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.svc.Withdraw(ctx, stranger.Actor, p.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	w, err := f.svc.Withdraw(ctx, va.Actor, p.ID)
	if err != nil || w.Status != proposal.StatusWithdrawn {
		t.Fatalf("withdraw: %+v %v", w, err)
	}
	if _, err := f.svc.Withdraw(ctx, va.Actor, p.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if _, err := f.svc.Submit(ctx, va.Actor, post.ID, fixedBid(480)); err != nil {
		t.Fatalf("resubmit after withdraw: %v", err)
	}
	if proposalCount(t, f, post) != 2 {
		t.Fatalf("count = %d", proposalCount(t, f, post))
	}

	mine, err := f.svc.ListMine(ctx, va.Actor)
	if err != nil || len(mine) != 2 {
		t.Fatalf("mine = %d %v", len(mine), err)
	}
	all, err := f.svc.ListForPosting(ctx, company.Actor, post.ID)
	if err != nil || len(all) != 2 {
		t.Fatalf("for posting = %d %v", len(all), err)
	}
	if _, err := f.svc.ListForPosting(ctx, usecasetest.NewCompany(t, f.store).Actor, post.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDecide_TermsOnlyWithAcceptance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	company := usecasetest.NewCompany(t, f.store)
	va := usecasetest.NewVA(t, f.store)
	post := usecasetest.NewPosting(t, f.store, company, 800)
	p, err := f.svc.Submit(ctx, va.Actor, post.ID, fixedBid(500))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	text := "Daily standup at 9"
	terms := engagement.Terms{Terms: &text, Deliverables: []string{"support inbox"}}
	if _, err := f.svc.Decide(ctx, company.Actor, p.ID, "reject", terms, nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("terms on a rejection, got %v", err)
	}
	still, err := f.store.Proposals().GetByID(ctx, p.ID)
	if err != nil || still.Status != proposal.StatusPending {
		t.Fatalf("proposal = %+v %v", still.Status, err)
	}

	d, err := f.svc.Decide(ctx, company.Actor, p.ID, "accept", terms, nil)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if d.Formed == nil || d.Formed.Contract.Terms != text || len(d.Formed.Contract.Deliverables) != 1 {
		t.Fatalf("formed = %+v", d.Formed)
	}
}
