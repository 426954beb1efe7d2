package engagement

import (
	"context"
	"errors"
	"time"

	"vahire/internal/domain"
	"vahire/internal/domain/contract"
	"vahire/internal/domain/proposal"
	"vahire/internal/repository"
)

type Formed struct {
	Contract contract.Contract
	Job      contract.Job
	// Created is false when the proposal already had its contract and this call only returned it.
	Created bool
}

// Form turns an accepted proposal into its contract and job using tx. Terms only apply to a newly created
// contract. Replays return the existing pair, and a contract left without a job gets one.
func Form(ctx context.Context, tx repository.Store, p proposal.Proposal, currency string, terms Terms, now time.Time) (Formed, error) {
	if p.Status != proposal.StatusAccepted {
		return Formed{}, domain.Conflict(domain.CodeProposalNotAccepted, "proposal %s is %s", p.ID, p.Status)
	}

	existing, err := tx.Contracts().GetByProposalID(ctx, p.ID)
	switch {
	case err == nil:
		job, _, err := ensureJob(ctx, tx, existing, now)
		if err != nil {
			return Formed{}, err
		}
		return Formed{Contract: existing, Job: job}, nil
	case errors.Is(err, domain.ErrNotFound):
	default:
		return Formed{}, err
	}

	post, err := tx.Postings().GetByID(ctx, p.JobPostingID)
	if err != nil {
		return Formed{}, err
	}
	c, err := contract.New(p, post, currency, now)
	if err != nil {
		return Formed{}, err
	}
	c = terms.apply(c)
	if err := tx.Contracts().Create(ctx, c); err != nil {
		return Formed{}, err
	}

	job := contract.NewJob(c, post, now)
	if err := tx.Jobs().Create(ctx, job); err != nil {
		return Formed{}, err
	}
	return Formed{Contract: c, Job: job, Created: true}, nil
}

func ensureJob(ctx context.Context, tx repository.Store, c contract.Contract, now time.Time) (contract.Job, bool, error) {
	job, err := tx.Jobs().GetByContractID(ctx, c.ID)
	if err == nil {
		return job, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return contract.Job{}, false, err
	}

	post, err := tx.Postings().GetByID(ctx, c.JobPostingID)
	if err != nil {
		return contract.Job{}, false, err
	}
	job = contract.NewJob(c, post, now)
	if err := tx.Jobs().Create(ctx, job); err != nil {
		return contract.Job{}, false, err
	}
	return job, true, nil
}
