package repository

import (
	"context"

	"vahire/internal/database"
	"vahire/internal/domain"
	"vahire/internal/domain/contract"

	"github.com/google/uuid"
)

type PostgresJobRepository struct {
	db database.Querier
}

func NewPostgresJobRepository(db database.Querier) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

const jobColumns = `id, contract_id, job_posting_id, va_profile_id, company_profile_id, title, description, budget, hourly_rate,
	start_date, end_date, status, created_at, updated_at`

func scanJob(row database.Row) (contract.Job, error) {
	var j contract.Job
	var status string
	err := row.Scan(&j.ID, &j.ContractID, &j.JobPostingID, &j.VAProfileID, &j.CompanyProfileID, &j.Title, &j.Description,
		&j.Budget, &j.HourlyRate, &j.StartDate, &j.EndDate, &status, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return contract.Job{}, err
	}
	j.Status = contract.JobStatus(status)
	return j, nil
}

func (r *PostgresJobRepository) Create(ctx context.Context, j contract.Job) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		j.ID, j.ContractID, j.JobPostingID, j.VAProfileID, j.CompanyProfileID, j.Title, j.Description,
		j.Budget, j.HourlyRate, j.StartDate, j.EndDate, string(j.Status), j.CreatedAt, j.UpdatedAt,
	)
	return mapWriteErr(err, "job")
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, id uuid.UUID) (contract.Job, error) {
	j, err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	return j, mapReadErr(err, "job")
}

func (r *PostgresJobRepository) GetByContractID(ctx context.Context, contractID uuid.UUID) (contract.Job, error) {
	j, err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE contract_id = $1`, contractID))
	return j, mapReadErr(err, "job")
}

func (r *PostgresJobRepository) UpdateStatus(ctx context.Context, j contract.Job) error {
	n, err := r.db.Exec(ctx,
		`UPDATE jobs SET status = $2, end_date = $3, updated_at = $4 WHERE id = $1`,
		j.ID, string(j.Status), j.EndDate, j.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err, "job")
	}
	if n == 0 {
		return domain.NotFound(domain.CodeNotFound, "job not found")
	}
	return nil
}
