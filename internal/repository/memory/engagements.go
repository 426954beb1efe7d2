package memory

import (
	"context"
	"sort"
	"time"

	"vahire/internal/domain"
	"vahire/internal/domain/contract"
	"vahire/internal/domain/milestone"
	"vahire/internal/domain/timesheet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type contractRepo struct{ s *Store }

func cloneContract(c contract.Contract) contract.Contract {
	c.Deliverables = cloneStrings(c.Deliverables)
	c.MilestonesData = append([]byte(nil), c.MilestonesData...)
	c.PaymentSchedule = append([]byte(nil), c.PaymentSchedule...)
	return c
}

func (r contractRepo) Create(_ context.Context, c contract.Contract) error {
	defer r.s.lock()()
	d := r.s.data()
	for _, existing := range d.contracts {
		if existing.ProposalID == c.ProposalID {
			return conflict(domain.CodeContractAlreadyFormed, "contract", "contracts_proposal_id_key")
		}
	}
	d.contracts[c.ID] = cloneContract(c)
	return nil
}

func (r contractRepo) GetByID(_ context.Context, id uuid.UUID) (contract.Contract, error) {
	defer r.s.lock()()
	c, ok := r.s.data().contracts[id]
	if !ok {
		return contract.Contract{}, notFound("contract")
	}
	return cloneContract(c), nil
}

func (r contractRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (contract.Contract, error) {
	return r.GetByID(ctx, id)
}

func (r contractRepo) GetByProposalID(_ context.Context, proposalID uuid.UUID) (contract.Contract, error) {
	defer r.s.lock()()
	for _, c := range r.s.data().contracts {
		if c.ProposalID == proposalID {
			return cloneContract(c), nil
		}
	}
	return contract.Contract{}, notFound("contract")
}

func (r contractRepo) Update(_ context.Context, c contract.Contract) error {
	defer r.s.lock()()
	d := r.s.data()
	cur, ok := d.contracts[c.ID]
	if !ok {
		return notFound("contract")
	}
	cur.Amount = c.Amount
	cur.HourlyRate = c.HourlyRate
	cur.EndDate = c.EndDate
	cur.Status = c.Status
	cur.Terms = c.Terms
	cur.Deliverables = c.Deliverables
	cur.MilestonesData = c.MilestonesData
	cur.PaymentSchedule = c.PaymentSchedule
	cur.UpdatedAt = c.UpdatedAt
	d.contracts[c.ID] = cloneContract(cur)
	return nil
}

func (r contractRepo) MarkRated(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	defer r.s.lock()()
	d := r.s.data()
	c, ok := d.contracts[id]
	if !ok || c.RatedAt != nil {
		return false, nil
	}
	at = at.UTC()
	c.RatedAt = &at
	c.UpdatedAt = at
	d.contracts[id] = c
	return true, nil
}

type jobRepo struct{ s *Store }

func (r jobRepo) Create(_ context.Context, j contract.Job) error {
	defer r.s.lock()()
	d := r.s.data()
	for _, existing := range d.jobs {
		if existing.ContractID == j.ContractID {
			return conflict(domain.CodeJobAlreadyExists, "job", "jobs_contract_id_key")
		}
	}
	d.jobs[j.ID] = j
	return nil
}

func (r jobRepo) GetByID(_ context.Context, id uuid.UUID) (contract.Job, error) {
	defer r.s.lock()()
	j, ok := r.s.data().jobs[id]
	if !ok {
		return contract.Job{}, notFound("job")
	}
	return j, nil
}

func (r jobRepo) GetByContractID(_ context.Context, contractID uuid.UUID) (contract.Job, error) {
	defer r.s.lock()()
	for _, j := range r.s.data().jobs {
		if j.ContractID == contractID {
			return j, nil
		}
	}
	return contract.Job{}, notFound("job")
}

func (r jobRepo) UpdateStatus(_ context.Context, j contract.Job) error {
	defer r.s.lock()()
	d := r.s.data()
	cur, ok := d.jobs[j.ID]
	if !ok {
		return notFound("job")
	}
	cur.Status = j.Status
	cur.EndDate = j.EndDate
	cur.UpdatedAt = j.UpdatedAt
	d.jobs[j.ID] = cur
	return nil
}

type milestoneRepo struct{ s *Store }

func cloneMilestone(m milestone.Milestone) milestone.Milestone {
	m.Attachments = cloneStrings(m.Attachments)
	return m
}

func (r milestoneRepo) Create(_ context.Context, m milestone.Milestone) error {
	defer r.s.lock()()
	r.s.data().milestones[m.ID] = cloneMilestone(m)
	return nil
}

func (r milestoneRepo) GetByID(_ context.Context, id uuid.UUID) (milestone.Milestone, error) {
	defer r.s.lock()()
	m, ok := r.s.data().milestones[id]
	if !ok {
		return milestone.Milestone{}, notFound("milestone")
	}
	return cloneMilestone(m), nil
}

func (r milestoneRepo) ListByContract(_ context.Context, contractID uuid.UUID) ([]milestone.Milestone, error) {
	defer r.s.lock()()
	out := make([]milestone.Milestone, 0)
	for _, m := range r.s.data().milestones {
		if m.ContractID == contractID {
			out = append(out, cloneMilestone(m))
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

func (r milestoneRepo) SumByContract(_ context.Context, contractID uuid.UUID) (decimal.Decimal, error) {
	defer r.s.lock()()
	total := decimal.Zero
	for _, m := range r.s.data().milestones {
		if m.ContractID == contractID {
			total = total.Add(m.Amount)
		}
	}
	return total, nil
}

func (r milestoneRepo) UpdateStatusFrom(_ context.Context, m milestone.Milestone, from milestone.Status) (bool, error) {
	defer r.s.lock()()
	d := r.s.data()
	cur, ok := d.milestones[m.ID]
	if !ok || cur.Status != from {
		return false, nil
	}
	cur.Status = m.Status
	cur.CompletedAt = m.CompletedAt
	cur.ApprovedAt = m.ApprovedAt
	cur.UpdatedAt = m.UpdatedAt
	d.milestones[m.ID] = cur
	return true, nil
}

type timesheetRepo struct{ s *Store }

func (r timesheetRepo) Create(_ context.Context, t timesheet.Timesheet) error {
	defer r.s.lock()()
	r.s.data().timesheets[t.ID] = t
	return nil
}

func (r timesheetRepo) GetByID(_ context.Context, id uuid.UUID) (timesheet.Timesheet, error) {
	defer r.s.lock()()
	t, ok := r.s.data().timesheets[id]
	if !ok {
		return timesheet.Timesheet{}, notFound("timesheet")
	}
	return t, nil
}

func (r timesheetRepo) ListByContract(_ context.Context, contractID uuid.UUID) ([]timesheet.Timesheet, error) {
	defer r.s.lock()()
	out := make([]timesheet.Timesheet, 0)
	for _, t := range r.s.data().timesheets {
		if t.ContractID == contractID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r timesheetRepo) ApproveIfPending(_ context.Context, t timesheet.Timesheet) (bool, error) {
	defer r.s.lock()()
	d := r.s.data()
	cur, ok := d.timesheets[t.ID]
	if !ok || cur.Status != timesheet.StatusPending {
		return false, nil
	}
	cur.Status = t.Status
	cur.ApprovedBy = t.ApprovedBy
	cur.ApprovedAt = t.ApprovedAt
	cur.UpdatedAt = t.UpdatedAt
	d.timesheets[t.ID] = cur
	return true, nil
}
