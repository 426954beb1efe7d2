package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain/milestone"
	"vahire/internal/domain/timesheet"
)

type MilestoneResponse struct {
	ID          uuid.UUID       `json:"id"`
	ContractID  uuid.UUID       `json:"contract_id"`
	JobID       uuid.UUID       `json:"job_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     *time.Time      `json:"due_date"`
	Status      string          `json:"status"`
	CompletedAt *time.Time      `json:"completed_at"`
	ApprovedAt  *time.Time      `json:"approved_at"`
	Attachments []string        `json:"attachments"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewMilestoneResponse(m milestone.Milestone) MilestoneResponse {
	attachments := m.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return MilestoneResponse{
		ID:          m.ID,
		ContractID:  m.ContractID,
		JobID:       m.JobID,
		Title:       m.Title,
		Description: m.Description,
		Amount:      m.Amount,
		DueDate:     m.DueDate,
		Status:      string(m.Status),
		CompletedAt: m.CompletedAt,
		ApprovedAt:  m.ApprovedAt,
		Attachments: attachments,
		CreatedAt:   m.CreatedAt,
	}
}

func NewMilestoneResponses(in []milestone.Milestone) []MilestoneResponse {
	out := make([]MilestoneResponse, 0, len(in))
	for _, m := range in {
		out = append(out, NewMilestoneResponse(m))
	}
	return out
}

type TimesheetResponse struct {
	ID          uuid.UUID       `json:"id"`
	ContractID  uuid.UUID       `json:"contract_id"`
	VAProfileID uuid.UUID       `json:"va_profile_id"`
	JobID       uuid.UUID       `json:"job_id"`
	Date        string          `json:"date"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	TotalHours  decimal.Decimal `json:"total_hours"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	ApprovedBy  *uuid.UUID      `json:"approved_by"`
	ApprovedAt  *time.Time      `json:"approved_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewTimesheetResponse(t timesheet.Timesheet) TimesheetResponse {
	return TimesheetResponse{
		ID:          t.ID,
		ContractID:  t.ContractID,
		VAProfileID: t.VAProfileID,
		JobID:       t.JobID,
		Date:        t.Date.Format(time.DateOnly),
		StartTime:   t.StartTime.Format("15:04"),
		EndTime:     t.EndTime.Format("15:04"),
		TotalHours:  t.TotalHours,
		Description: t.Description,
		Status:      string(t.Status),
		ApprovedBy:  t.ApprovedBy,
		ApprovedAt:  t.ApprovedAt,
		CreatedAt:   t.CreatedAt,
	}
}

func NewTimesheetResponses(in []timesheet.Timesheet) []TimesheetResponse {
	out := make([]TimesheetResponse, 0, len(in))
	for _, t := range in {
		out = append(out, NewTimesheetResponse(t))
	}
	return out
}
