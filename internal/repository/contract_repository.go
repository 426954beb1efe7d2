package repository

import (
	"context"
	"time"

	"vahire/internal/database"
	"vahire/internal/domain"
	"vahire/internal/domain/contract"

	"github.com/google/uuid"
)

type PostgresContractRepository struct {
	db database.Querier
}

func NewPostgresContractRepository(db database.Querier) *PostgresContractRepository {
	return &PostgresContractRepository{db: db}
}

const contractColumns = `id, proposal_id, job_posting_id, va_profile_id, company_profile_id, contract_type, amount, hourly_rate,
	currency, start_date, end_date, status, terms, deliverables, milestones_data, payment_schedule, rated_at, created_at, updated_at`

func scanContract(row database.Row) (contract.Contract, error) {
	var c contract.Contract
	var ctype, status string
	var milestones, schedule []byte
	err := row.Scan(&c.ID, &c.ProposalID, &c.JobPostingID, &c.VAProfileID, &c.CompanyProfileID, &ctype, &c.Amount,
		&c.HourlyRate, &c.Currency, &c.StartDate, &c.EndDate, &status, &c.Terms, &c.Deliverables,
		&milestones, &schedule, &c.RatedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return contract.Contract{}, err
	}
	c.ContractType = contract.Type(ctype)
	c.Status = contract.Status(status)
	c.MilestonesData = milestones
	c.PaymentSchedule = schedule
	if c.Deliverables == nil {
		c.Deliverables = []string{}
	}
	return c, nil
}

// jsonArg turns an empty document into SQL NULL.
func jsonArg(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func (r *PostgresContractRepository) Create(ctx context.Context, c contract.Contract) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO contracts (`+contractColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		c.ID, c.ProposalID, c.JobPostingID, c.VAProfileID, c.CompanyProfileID, string(c.ContractType), c.Amount,
		c.HourlyRate, c.Currency, c.StartDate, c.EndDate, string(c.Status), c.Terms, c.Deliverables,
		jsonArg(c.MilestonesData), jsonArg(c.PaymentSchedule), c.RatedAt, c.CreatedAt, c.UpdatedAt,
	)
	return mapWriteErr(err, "contract")
}

func (r *PostgresContractRepository) GetByID(ctx context.Context, id uuid.UUID) (contract.Contract, error) {
	c, err := scanContract(r.db.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id))
	return c, mapReadErr(err, "contract")
}

func (r *PostgresContractRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (contract.Contract, error) {
	c, err := scanContract(r.db.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1 FOR UPDATE`, id))
	return c, mapReadErr(err, "contract")
}

func (r *PostgresContractRepository) GetByProposalID(ctx context.Context, proposalID uuid.UUID) (contract.Contract, error) {
	c, err := scanContract(r.db.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE proposal_id = $1`, proposalID))
	return c, mapReadErr(err, "contract")
}

func (r *PostgresContractRepository) Update(ctx context.Context, c contract.Contract) error {
	n, err := r.db.Exec(ctx,
		`UPDATE contracts
		 SET amount = $2, hourly_rate = $3, end_date = $4, status = $5, terms = $6, deliverables = $7,
		     milestones_data = $8, payment_schedule = $9, updated_at = $10
		 WHERE id = $1`,
		c.ID, c.Amount, c.HourlyRate, c.EndDate, string(c.Status), c.Terms, c.Deliverables,
		jsonArg(c.MilestonesData), jsonArg(c.PaymentSchedule), c.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err, "contract")
	}
	if n == 0 {
		return domain.NotFound(domain.CodeNotFound, "contract not found")
	}
	return nil
}

func (r *PostgresContractRepository) MarkRated(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE contracts SET rated_at = $2, updated_at = $2 WHERE id = $1 AND rated_at IS NULL`,
		id, at.UTC(),
	)
	if err != nil {
		return false, mapWriteErr(err, "contract")
	}
	return n == 1, nil
}
