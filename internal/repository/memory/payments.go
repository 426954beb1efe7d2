package memory

import (
	"context"
	"sort"
	"time"

	"vahire/internal/domain"
	"vahire/internal/domain/payment"
	"vahire/internal/domain/proposal"
	"vahire/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, p payment.Payment) error {
	defer r.s.lock()()
	d := r.s.data()
	for _, existing := range d.payments {
		if existing.TransactionRef == p.TransactionRef {
			return conflict(domain.CodeDuplicateTransactionReference, "payment", "payments_transaction_reference_key")
		}
	}
	d.payments[p.ID] = p
	return nil
}

func (r paymentRepo) GetByID(_ context.Context, id uuid.UUID) (payment.Payment, error) {
	defer r.s.lock()()
	p, ok := r.s.data().payments[id]
	if !ok {
		return payment.Payment{}, notFound("payment")
	}
	return p, nil
}

func (r paymentRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (payment.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r paymentRepo) ListByContract(_ context.Context, contractID uuid.UUID) ([]payment.Payment, error) {
	defer r.s.lock()()
	out := make([]payment.Payment, 0)
	for _, p := range r.s.data().payments {
		if p.ContractID != nil && *p.ContractID == contractID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r paymentRepo) UpdateStatusFrom(_ context.Context, id uuid.UUID, from, to payment.Status) (bool, error) {
	defer r.s.lock()()
	d := r.s.data()
	p, ok := d.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	p.UpdatedAt = time.Now().UTC()
	d.payments[id] = p
	return true, nil
}

func (r paymentRepo) UpdateRefund(_ context.Context, p payment.Payment) error {
	defer r.s.lock()()
	d := r.s.data()
	cur, ok := d.payments[p.ID]
	if !ok {
		return notFound("payment")
	}
	cur.RefundAmount = p.RefundAmount
	cur.RefundedAt = p.RefundedAt
	cur.Status = p.Status
	cur.UpdatedAt = p.UpdatedAt
	d.payments[p.ID] = cur
	return nil
}

func (r paymentRepo) AddToPayerTotal(_ context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	defer r.s.lock()()
	d := r.s.data()
	d.totals[accountID] = d.totals[accountID].Add(amount)
	return nil
}

func (r paymentRepo) TotalByPayer(_ context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	defer r.s.lock()()
	return r.s.data().totals[accountID], nil
}

type reconcileRepo struct{ s *Store }

func limitOf(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func (r reconcileRepo) ListCounterDrift(_ context.Context, limit int) ([]repository.CounterDrift, error) {
	defer r.s.lock()()
	d := r.s.data()
	actual := map[uuid.UUID]int{}
	for _, p := range d.proposals {
		actual[p.JobPostingID]++
	}
	out := make([]repository.CounterDrift, 0)
	for id, p := range d.postings {
		if p.ProposalCount != actual[id] {
			out = append(out, repository.CounterDrift{PostingID: id, Recorded: p.ProposalCount, Actual: actual[id]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostingID.String() < out[j].PostingID.String() })
	if n := limitOf(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (r reconcileRepo) ListUnformedAcceptedProposals(_ context.Context, limit int) ([]repository.UnformedProposal, error) {
	defer r.s.lock()()
	d := r.s.data()
	formed := map[uuid.UUID]bool{}
	for _, c := range d.contracts {
		formed[c.ProposalID] = true
	}
	out := make([]repository.UnformedProposal, 0)
	for _, p := range d.proposals {
		if p.Status == proposal.StatusAccepted && !formed[p.ID] {
			out = append(out, repository.UnformedProposal{ProposalID: p.ID, JobPostingID: p.JobPostingID, VAProfileID: p.VAProfileID})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProposalID.String() < out[j].ProposalID.String() })
	if n := limitOf(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (r reconcileRepo) ListContractsWithoutJob(_ context.Context, limit int) ([]repository.ContractWithoutJob, error) {
	defer r.s.lock()()
	d := r.s.data()
	hasJob := map[uuid.UUID]bool{}
	for _, j := range d.jobs {
		hasJob[j.ContractID] = true
	}
	out := make([]repository.ContractWithoutJob, 0)
	for _, c := range d.contracts {
		if !hasJob[c.ID] {
			out = append(out, repository.ContractWithoutJob{ContractID: c.ID, ProposalID: c.ProposalID})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContractID.String() < out[j].ContractID.String() })
	if n := limitOf(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (r reconcileRepo) ResetProposalCount(_ context.Context, postingID uuid.UUID, count int) error {
	defer r.s.lock()()
	d := r.s.data()
	p, ok := d.postings[postingID]
	if !ok {
		return notFound("job posting")
	}
	p.ProposalCount = count
	d.postings[postingID] = p
	return nil
}
