package repository

import (
	"context"
	"time"

	"vahire/internal/database"
	"vahire/internal/domain"
	"vahire/internal/domain/posting"

	"github.com/google/uuid"
)

type PostgresPostingRepository struct {
	db database.Querier
}

func NewPostgresPostingRepository(db database.Querier) *PostgresPostingRepository {
	return &PostgresPostingRepository{db: db}
}

const postingColumns = `id, company_profile_id, title, description, budget, rate_min, rate_max, status, views, proposal_count, created_at, updated_at`

func scanPosting(row database.Row) (posting.Posting, error) {
	var p posting.Posting
	var status string
	err := row.Scan(&p.ID, &p.CompanyProfileID, &p.Title, &p.Description, &p.Budget, &p.RateMin, &p.RateMax,
		&status, &p.Views, &p.ProposalCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return posting.Posting{}, err
	}
	p.Status = posting.Status(status)
	return p, nil
}

func (r *PostgresPostingRepository) Create(ctx context.Context, p posting.Posting) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO job_postings (`+postingColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.CompanyProfileID, p.Title, p.Description, p.Budget, p.RateMin, p.RateMax,
		string(p.Status), p.Views, p.ProposalCount, p.CreatedAt, p.UpdatedAt,
	)
	return mapWriteErr(err, "job posting")
}

func (r *PostgresPostingRepository) Update(ctx context.Context, p posting.Posting) error {
	n, err := r.db.Exec(ctx,
		`UPDATE job_postings
		 SET title = $2, description = $3, budget = $4, rate_min = $5, rate_max = $6, status = $7, updated_at = $8
		 WHERE id = $1`,
		p.ID, p.Title, p.Description, p.Budget, p.RateMin, p.RateMax, string(p.Status), p.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err, "job posting")
	}
	if n == 0 {
		return domain.NotFound(domain.CodeNotFound, "job posting not found")
	}
	return nil
}

func (r *PostgresPostingRepository) GetByID(ctx context.Context, id uuid.UUID) (posting.Posting, error) {
	p, err := scanPosting(r.db.QueryRow(ctx, `SELECT `+postingColumns+` FROM job_postings WHERE id = $1`, id))
	return p, mapReadErr(err, "job posting")
}

// GetByIDForUpdate locks the posting row until the surrounding transaction ends.
func (r *PostgresPostingRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (posting.Posting, error) {
	p, err := scanPosting(r.db.QueryRow(ctx, `SELECT `+postingColumns+` FROM job_postings WHERE id = $1 FOR UPDATE`, id))
	return p, mapReadErr(err, "job posting")
}

func (r *PostgresPostingRepository) IncrementViews(ctx context.Context, id uuid.UUID) (posting.Posting, error) {
	p, err := scanPosting(r.db.QueryRow(ctx,
		`UPDATE job_postings SET views = views + 1 WHERE id = $1 RETURNING `+postingColumns, id))
	return p, mapReadErr(err, "job posting")
}

func (r *PostgresPostingRepository) IncrementProposalCount(ctx context.Context, id uuid.UUID) error {
	n, err := r.db.Exec(ctx,
		`UPDATE job_postings SET proposal_count = proposal_count + 1, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return mapWriteErr(err, "job posting")
	}
	if n == 0 {
		return domain.NotFound(domain.CodeNotFound, "job posting not found")
	}
	return nil
}

func (r *PostgresPostingRepository) ListOpen(ctx context.Context, limit, offset int) ([]posting.Posting, error) {
	return r.list(ctx,
		`SELECT `+postingColumns+` FROM job_postings
		 WHERE status = 'open'
		 ORDER BY created_at DESC, id ASC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
}

func (r *PostgresPostingRepository) ListByCompany(ctx context.Context, companyProfileID uuid.UUID) ([]posting.Posting, error) {
	return r.list(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE company_profile_id = $1 ORDER BY created_at DESC, id ASC`,
		companyProfileID,
	)
}

func (r *PostgresPostingRepository) list(ctx context.Context, query string, args ...any) ([]posting.Posting, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]posting.Posting, 0)
	for rows.Next() {
		p, err := scanPosting(rows)
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
