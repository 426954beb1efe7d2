package repository

import (
	"context"

	"vahire/internal/database"
	"vahire/internal/domain/proposal"

	"github.com/google/uuid"
)

type PostgresProposalRepository struct {
	db database.Querier
}

func NewPostgresProposalRepository(db database.Querier) *PostgresProposalRepository {
	return &PostgresProposalRepository{db: db}
}

const proposalColumns = `id, job_posting_id, va_profile_id, bid_type, bid_amount, cover_letter, estimated_duration, status, responded_at, created_at, updated_at`

func scanProposal(row database.Row) (proposal.Proposal, error) {
	var p proposal.Proposal
	var bidType, status string
	err := row.Scan(&p.ID, &p.JobPostingID, &p.VAProfileID, &bidType, &p.BidAmount, &p.CoverLetter,
		&p.EstimatedDuration, &status, &p.RespondedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return proposal.Proposal{}, err
	}
	p.BidType = proposal.BidType(bidType)
	p.Status = proposal.Status(status)
	return p, nil
}

func (r *PostgresProposalRepository) Create(ctx context.Context, p proposal.Proposal) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO proposals (`+proposalColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.JobPostingID, p.VAProfileID, string(p.BidType), p.BidAmount, p.CoverLetter,
		p.EstimatedDuration, string(p.Status), p.RespondedAt, p.CreatedAt, p.UpdatedAt,
	)
	return mapWriteErr(err, "proposal")
}

func (r *PostgresProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (proposal.Proposal, error) {
	p, err := scanProposal(r.db.QueryRow(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id = $1`, id))
	return p, mapReadErr(err, "proposal")
}

func (r *PostgresProposalRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (proposal.Proposal, error) {
	p, err := scanProposal(r.db.QueryRow(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id = $1 FOR UPDATE`, id))
	return p, mapReadErr(err, "proposal")
}

func (r *PostgresProposalRepository) HasPending(ctx context.Context, postingID, vaProfileID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM proposals
			WHERE job_posting_id = $1 AND va_profile_id = $2 AND status = 'pending'
		 )`,
		postingID, vaProfileID,
	).Scan(&exists)
	return exists, err
}

func (r *PostgresProposalRepository) UpdateStatusIfPending(ctx context.Context, p proposal.Proposal) (bool, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE proposals SET status = $2, responded_at = $3, updated_at = $4
		 WHERE id = $1 AND status = 'pending'`,
		p.ID, string(p.Status), p.RespondedAt, p.UpdatedAt,
	)
	if err != nil {
		return false, mapWriteErr(err, "proposal")
	}
	return n == 1, nil
}

func (r *PostgresProposalRepository) ListByPosting(ctx context.Context, postingID uuid.UUID) ([]proposal.Proposal, error) {
	return r.list(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE job_posting_id = $1 ORDER BY created_at ASC, id ASC`, postingID)
}

func (r *PostgresProposalRepository) ListByVAProfile(ctx context.Context, vaProfileID uuid.UUID) ([]proposal.Proposal, error) {
	return r.list(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE va_profile_id = $1 ORDER BY created_at DESC, id ASC`, vaProfileID)
}

func (r *PostgresProposalRepository) list(ctx context.Context, query string, args ...any) ([]proposal.Proposal, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]proposal.Proposal, 0)
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
