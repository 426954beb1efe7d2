package memory

import (
	"context"
	"sort"
	"time"

	"vahire/internal/domain"
	"vahire/internal/domain/posting"
	"vahire/internal/domain/proposal"

	"github.com/google/uuid"
)

type postingRepo struct{ s *Store }

func (r postingRepo) Create(_ context.Context, p posting.Posting) error {
	defer r.s.lock()()
	r.s.data().postings[p.ID] = p
	return nil
}

func (r postingRepo) Update(_ context.Context, p posting.Posting) error {
	defer r.s.lock()()
	d := r.s.data()
	cur, ok := d.postings[p.ID]
	if !ok {
		return notFound("job posting")
	}
	cur.Title = p.Title
	cur.Description = p.Description
	cur.Budget = p.Budget
	cur.RateMin = p.RateMin
	cur.RateMax = p.RateMax
	cur.Status = p.Status
	cur.UpdatedAt = p.UpdatedAt
	d.postings[p.ID] = cur
	return nil
}

func (r postingRepo) GetByID(_ context.Context, id uuid.UUID) (posting.Posting, error) {
	defer r.s.lock()()
	p, ok := r.s.data().postings[id]
	if !ok {
		return posting.Posting{}, notFound("job posting")
	}
	return p, nil
}

// GetByIDForUpdate needs no row lock here: a transaction already holds the store lock.
func (r postingRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (posting.Posting, error) {
	return r.GetByID(ctx, id)
}

func (r postingRepo) IncrementViews(_ context.Context, id uuid.UUID) (posting.Posting, error) {
	defer r.s.lock()()
	d := r.s.data()
	p, ok := d.postings[id]
	if !ok {
		return posting.Posting{}, notFound("job posting")
	}
	p.Views++
	d.postings[id] = p
	return p, nil
}

func (r postingRepo) IncrementProposalCount(_ context.Context, id uuid.UUID) error {
	defer r.s.lock()()
	d := r.s.data()
	p, ok := d.postings[id]
	if !ok {
		return notFound("job posting")
	}
	p.ProposalCount++
	p.UpdatedAt = time.Now().UTC()
	d.postings[id] = p
	return nil
}

func (r postingRepo) ListOpen(_ context.Context, limit, offset int) ([]posting.Posting, error) {
	defer r.s.lock()()
	out := make([]posting.Posting, 0)
	for _, p := range r.s.data().postings {
		if p.Status == posting.StatusOpen {
			out = append(out, p)
		}
	}
	sortPostings(out)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []posting.Posting{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r postingRepo) ListByCompany(_ context.Context, companyProfileID uuid.UUID) ([]posting.Posting, error) {
	defer r.s.lock()()
	out := make([]posting.Posting, 0)
	for _, p := range r.s.data().postings {
		if p.CompanyProfileID == companyProfileID {
			out = append(out, p)
		}
	}
	sortPostings(out)
	return out, nil
}

func sortPostings(ps []posting.Posting) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.After(ps[j].CreatedAt)
		}
		return ps[i].ID.String() < ps[j].ID.String()
	})
}

type proposalRepo struct{ s *Store }

func (r proposalRepo) Create(_ context.Context, p proposal.Proposal) error {
	defer r.s.lock()()
	d := r.s.data()
	if p.Status == proposal.StatusPending && hasPending(d, p.JobPostingID, p.VAProfileID) {
		return conflict(domain.CodeDuplicatePendingProposal, "proposal", "proposals_one_pending_per_va")
	}
	d.proposals[p.ID] = p
	return nil
}

func hasPending(d *state, postingID, vaProfileID uuid.UUID) bool {
	for _, p := range d.proposals {
		if p.JobPostingID == postingID && p.VAProfileID == vaProfileID && p.Status == proposal.StatusPending {
			return true
		}
	}
	return false
}

func (r proposalRepo) GetByID(_ context.Context, id uuid.UUID) (proposal.Proposal, error) {
	defer r.s.lock()()
	p, ok := r.s.data().proposals[id]
	if !ok {
		return proposal.Proposal{}, notFound("proposal")
	}
	return p, nil
}

func (r proposalRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (proposal.Proposal, error) {
	return r.GetByID(ctx, id)
}

func (r proposalRepo) HasPending(_ context.Context, postingID, vaProfileID uuid.UUID) (bool, error) {
	defer r.s.lock()()
	return hasPending(r.s.data(), postingID, vaProfileID), nil
}

func (r proposalRepo) UpdateStatusIfPending(_ context.Context, p proposal.Proposal) (bool, error) {
	defer r.s.lock()()
	d := r.s.data()
	cur, ok := d.proposals[p.ID]
	if !ok || cur.Status != proposal.StatusPending {
		return false, nil
	}
	cur.Status = p.Status
	cur.RespondedAt = p.RespondedAt
	cur.UpdatedAt = p.UpdatedAt
	d.proposals[p.ID] = cur
	return true, nil
}

func (r proposalRepo) ListByPosting(_ context.Context, postingID uuid.UUID) ([]proposal.Proposal, error) {
	defer r.s.lock()()
	out := make([]proposal.Proposal, 0)
	for _, p := range r.s.data().proposals {
		if p.JobPostingID == postingID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r proposalRepo) ListByVAProfile(_ context.Context, vaProfileID uuid.UUID) ([]proposal.Proposal, error) {
	defer r.s.lock()()
	out := make([]proposal.Proposal, 0)
	for _, p := range r.s.data().proposals {
		if p.VAProfileID == vaProfileID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
