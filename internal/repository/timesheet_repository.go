package repository

import (
	"context"

	"vahire/internal/database"
	"vahire/internal/domain/timesheet"

	"github.com/google/uuid"
)

type PostgresTimesheetRepository struct {
	db database.Querier
}

func NewPostgresTimesheetRepository(db database.Querier) *PostgresTimesheetRepository {
	return &PostgresTimesheetRepository{db: db}
}

const timesheetColumns = `id, contract_id, va_profile_id, job_id, work_date, start_time, end_time, total_hours, description,
	status, approved_by, approved_at, created_at, updated_at`

func scanTimesheet(row database.Row) (timesheet.Timesheet, error) {
	var t timesheet.Timesheet
	var status string
	err := row.Scan(&t.ID, &t.ContractID, &t.VAProfileID, &t.JobID, &t.Date, &t.StartTime, &t.EndTime, &t.TotalHours,
		&t.Description, &status, &t.ApprovedBy, &t.ApprovedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	t.Status = timesheet.Status(status)
	return t, nil
}

func (r *PostgresTimesheetRepository) Create(ctx context.Context, t timesheet.Timesheet) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO timesheets (`+timesheetColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.ContractID, t.VAProfileID, t.JobID, t.Date, t.StartTime, t.EndTime, t.TotalHours,
		t.Description, string(t.Status), t.ApprovedBy, t.ApprovedAt, t.CreatedAt, t.UpdatedAt,
	)
	return mapWriteErr(err, "timesheet")
}

func (r *PostgresTimesheetRepository) GetByID(ctx context.Context, id uuid.UUID) (timesheet.Timesheet, error) {
	t, err := scanTimesheet(r.db.QueryRow(ctx, `SELECT `+timesheetColumns+` FROM timesheets WHERE id = $1`, id))
	return t, mapReadErr(err, "timesheet")
}

func (r *PostgresTimesheetRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]timesheet.Timesheet, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+timesheetColumns+` FROM timesheets WHERE contract_id = $1 ORDER BY work_date ASC, start_time ASC`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]timesheet.Timesheet, 0)
	for rows.Next() {
		t, err := scanTimesheet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresTimesheetRepository) ApproveIfPending(ctx context.Context, t timesheet.Timesheet) (bool, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE timesheets SET status = $2, approved_by = $3, approved_at = $4, updated_at = $5
		 WHERE id = $1 AND status = 'pending'`,
		t.ID, string(t.Status), t.ApprovedBy, t.ApprovedAt, t.UpdatedAt,
	)
	if err != nil {
		return false, mapWriteErr(err, "timesheet")
	}
	return n == 1, nil
}
