package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain/contract"
	"vahire/internal/usecase/engagement"
)

type ContractResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProposalID       uuid.UUID       `json:"proposal_id"`
	JobPostingID     uuid.UUID       `json:"job_posting_id"`
	VAProfileID      uuid.UUID       `json:"va_profile_id"`
	CompanyProfileID uuid.UUID       `json:"company_profile_id"`
	ContractType     string          `json:"contract_type"`
	Amount           decimal.Decimal `json:"amount"`
	HourlyRate       decimal.Decimal `json:"hourly_rate"`
	Currency         string          `json:"currency"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          *time.Time      `json:"end_date"`
	Status           string          `json:"status"`
	Terms            string          `json:"terms"`
	Deliverables     []string        `json:"deliverables"`
	MilestonesData   json.RawMessage `json:"milestones_data,omitempty"`
	PaymentSchedule  json.RawMessage `json:"payment_schedule,omitempty"`
	RatedAt          *time.Time      `json:"rated_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func NewContractResponse(c contract.Contract) ContractResponse {
	deliverables := c.Deliverables
	if deliverables == nil {
		deliverables = []string{}
	}
	return ContractResponse{
		ID:               c.ID,
		ProposalID:       c.ProposalID,
		JobPostingID:     c.JobPostingID,
		VAProfileID:      c.VAProfileID,
		CompanyProfileID: c.CompanyProfileID,
		ContractType:     string(c.ContractType),
		Amount:           c.Amount,
		HourlyRate:       c.HourlyRate,
		Currency:         c.Currency,
		StartDate:        c.StartDate,
		EndDate:          c.EndDate,
		Status:           string(c.Status),
		Terms:            c.Terms,
		Deliverables:     deliverables,
		MilestonesData:   c.MilestonesData,
		PaymentSchedule:  c.PaymentSchedule,
		RatedAt:          c.RatedAt,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

type JobResponse struct {
	ID               uuid.UUID       `json:"id"`
	ContractID       uuid.UUID       `json:"contract_id"`
	JobPostingID     uuid.UUID       `json:"job_posting_id"`
	VAProfileID      uuid.UUID       `json:"va_profile_id"`
	CompanyProfileID uuid.UUID       `json:"company_profile_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Budget           decimal.Decimal `json:"budget"`
	HourlyRate       decimal.Decimal `json:"hourly_rate"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          *time.Time      `json:"end_date"`
	Status           string          `json:"status"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func NewJobResponse(j contract.Job) JobResponse {
	return JobResponse{
		ID:               j.ID,
		ContractID:       j.ContractID,
		JobPostingID:     j.JobPostingID,
		VAProfileID:      j.VAProfileID,
		CompanyProfileID: j.CompanyProfileID,
		Title:            j.Title,
		Description:      j.Description,
		Budget:           j.Budget,
		HourlyRate:       j.HourlyRate,
		StartDate:        j.StartDate,
		EndDate:          j.EndDate,
		Status:           string(j.Status),
		UpdatedAt:        j.UpdatedAt,
	}
}

// FormedResponse is returned by contract formation; Created is false on a replay.
type FormedResponse struct {
	Contract ContractResponse `json:"contract"`
	Job      JobResponse      `json:"job"`
	Created  bool             `json:"created"`
}

func NewFormedResponse(f engagement.Formed) FormedResponse {
	return FormedResponse{Contract: NewContractResponse(f.Contract), Job: NewJobResponse(f.Job), Created: f.Created}
}

type ContractViewResponse struct {
	Contract   ContractResponse    `json:"contract"`
	Milestones []MilestoneResponse `json:"milestones,omitempty"`
	Timesheets []TimesheetResponse `json:"timesheets,omitempty"`
	Job        *JobResponse        `json:"job,omitempty"`
	Payments   []PaymentResponse   `json:"payments,omitempty"`
}

func NewContractViewResponse(v engagement.ContractView) ContractViewResponse {
	out := ContractViewResponse{Contract: NewContractResponse(v.Contract)}
	if v.Milestones != nil {
		out.Milestones = NewMilestoneResponses(v.Milestones)
	}
	if v.Timesheets != nil {
		out.Timesheets = NewTimesheetResponses(v.Timesheets)
	}
	if v.Job != nil {
		j := NewJobResponse(*v.Job)
		out.Job = &j
	}
	if v.Payments != nil {
		out.Payments = NewPaymentResponses(v.Payments)
	}
	return out
}
