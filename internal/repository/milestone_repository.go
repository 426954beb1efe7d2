package repository

import (
	"context"

	"vahire/internal/database"
	"vahire/internal/domain/milestone"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PostgresMilestoneRepository struct {
	db database.Querier
}

func NewPostgresMilestoneRepository(db database.Querier) *PostgresMilestoneRepository {
	return &PostgresMilestoneRepository{db: db}
}

const milestoneColumns = `id, contract_id, job_id, title, description, amount, due_date, status, completed_at, approved_at,
	attachments, created_at, updated_at`

func scanMilestone(row database.Row) (milestone.Milestone, error) {
	var m milestone.Milestone
	var status string
	err := row.Scan(&m.ID, &m.ContractID, &m.JobID, &m.Title, &m.Description, &m.Amount, &m.DueDate, &status,
		&m.CompletedAt, &m.ApprovedAt, &m.Attachments, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return milestone.Milestone{}, err
	}
	m.Status = milestone.Status(status)
	if m.Attachments == nil {
		m.Attachments = []string{}
	}
	return m, nil
}

func (r *PostgresMilestoneRepository) Create(ctx context.Context, m milestone.Milestone) error {
	attachments := m.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO milestones (`+milestoneColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		m.ID, m.ContractID, m.JobID, m.Title, m.Description, m.Amount, m.DueDate, string(m.Status),
		m.CompletedAt, m.ApprovedAt, attachments, m.CreatedAt, m.UpdatedAt,
	)
	return mapWriteErr(err, "milestone")
}

func (r *PostgresMilestoneRepository) GetByID(ctx context.Context, id uuid.UUID) (milestone.Milestone, error) {
	m, err := scanMilestone(r.db.QueryRow(ctx, `SELECT `+milestoneColumns+` FROM milestones WHERE id = $1`, id))
	return m, mapReadErr(err, "milestone")
}

func (r *PostgresMilestoneRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]milestone.Milestone, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+milestoneColumns+` FROM milestones WHERE contract_id = $1 ORDER BY created_at ASC, id ASC`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]milestone.Milestone, 0)
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresMilestoneRepository) SumByContract(ctx context.Context, contractID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM milestones WHERE contract_id = $1`, contractID).Scan(&total)
	return total, err
}

func (r *PostgresMilestoneRepository) UpdateStatusFrom(ctx context.Context, m milestone.Milestone, from milestone.Status) (bool, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE milestones SET status = $2, completed_at = $3, approved_at = $4, updated_at = $5
		 WHERE id = $1 AND status = $6`,
		m.ID, string(m.Status), m.CompletedAt, m.ApprovedAt, m.UpdatedAt, string(from),
	)
	if err != nil {
		return false, mapWriteErr(err, "milestone")
	}
	return n == 1, nil
}
