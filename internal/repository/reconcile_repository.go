package repository

import (
	"context"

	"vahire/internal/database"

	"github.com/google/uuid"
)

// CounterDrift is a posting whose stored proposal_count disagrees with its proposal rows.
type CounterDrift struct {
	PostingID uuid.UUID
	Recorded  int
	Actual    int
}

type UnformedProposal struct {
	ProposalID   uuid.UUID
	JobPostingID uuid.UUID
	VAProfileID  uuid.UUID
}

type ContractWithoutJob struct {
	ContractID uuid.UUID
	ProposalID uuid.UUID
}

// ReconcileRepository reads the cross-table consistency checks used by the admin reconciliation report.
type ReconcileRepository interface {
	ListCounterDrift(ctx context.Context, limit int) ([]CounterDrift, error)
	ListUnformedAcceptedProposals(ctx context.Context, limit int) ([]UnformedProposal, error)
	ListContractsWithoutJob(ctx context.Context, limit int) ([]ContractWithoutJob, error)
	ResetProposalCount(ctx context.Context, postingID uuid.UUID, count int) error
}

type PostgresReconcileRepository struct {
	db database.Querier
}

func NewPostgresReconcileRepository(db database.Querier) *PostgresReconcileRepository {
	return &PostgresReconcileRepository{db: db}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func (r *PostgresReconcileRepository) ListCounterDrift(ctx context.Context, limit int) ([]CounterDrift, error) {
	rows, err := r.db.Query(ctx,
		`SELECT jp.id, jp.proposal_count, COALESCE(c.actual, 0)
		 FROM job_postings jp
		 LEFT JOIN (
			SELECT job_posting_id, COUNT(1) AS actual FROM proposals GROUP BY job_posting_id
		 ) c ON c.job_posting_id = jp.id
		 WHERE jp.proposal_count <> COALESCE(c.actual, 0)
		 ORDER BY jp.id
		 LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CounterDrift, 0)
	for rows.Next() {
		var d CounterDrift
		if err := rows.Scan(&d.PostingID, &d.Recorded, &d.Actual); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresReconcileRepository) ListUnformedAcceptedProposals(ctx context.Context, limit int) ([]UnformedProposal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.job_posting_id, p.va_profile_id
		 FROM proposals p
		 WHERE p.status = 'accepted'
		   AND NOT EXISTS (SELECT 1 FROM contracts c WHERE c.proposal_id = p.id)
		 ORDER BY p.responded_at ASC NULLS LAST
		 LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]UnformedProposal, 0)
	for rows.Next() {
		var u UnformedProposal
		if err := rows.Scan(&u.ProposalID, &u.JobPostingID, &u.VAProfileID); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresReconcileRepository) ListContractsWithoutJob(ctx context.Context, limit int) ([]ContractWithoutJob, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.proposal_id
		 FROM contracts c
		 WHERE NOT EXISTS (SELECT 1 FROM jobs j WHERE j.contract_id = c.id)
		 ORDER BY c.created_at ASC
		 LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ContractWithoutJob, 0)
	for rows.Next() {
		var c ContractWithoutJob
		if err := rows.Scan(&c.ContractID, &c.ProposalID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresReconcileRepository) ResetProposalCount(ctx context.Context, postingID uuid.UUID, count int) error {
	_, err := r.db.Exec(ctx, `UPDATE job_postings SET proposal_count = $2 WHERE id = $1`, postingID, count)
	return mapWriteErr(err, "job posting")
}
