package contract

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain"
	"vahire/internal/domain/posting"
	"vahire/internal/domain/proposal"
)

type Type string

const (
	TypeFixed  Type = "fixed"
	TypeHourly Type = "hourly"
)

type Status string

const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusTerminated Status = "terminated"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusDraft, StatusActive, StatusCompleted, StatusTerminated:
		return st, nil
	default:
		return "", domain.Validation(domain.CodeInvalidStatus, "invalid contract status %q", s)
	}
}

var contractTransitions = map[Status][]Status{
	StatusDraft:  {StatusActive, StatusTerminated},
	StatusActive: {StatusCompleted, StatusTerminated},
}

func CanTransition(from, to Status) bool {
	for _, s := range contractTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Contract struct {
	ID               uuid.UUID
	ProposalID       uuid.UUID
	JobPostingID     uuid.UUID
	VAProfileID      uuid.UUID
	CompanyProfileID uuid.UUID
	ContractType     Type
	Amount           decimal.Decimal
	HourlyRate       decimal.Decimal
	Currency         string
	StartDate        time.Time
	EndDate          *time.Time
	Status           Status
	Terms            string
	Deliverables     []string
	MilestonesData   json.RawMessage
	PaymentSchedule  json.RawMessage
	RatedAt          *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// New builds the contract for an accepted proposal from the posting as it reads at formation time.
func New(p proposal.Proposal, post posting.Posting, currency string, now time.Time) (Contract, error) {
	if p.Status != proposal.StatusAccepted {
		return Contract{}, domain.Conflict(domain.CodeProposalNotAccepted, "proposal %s is %s", p.ID, p.Status)
	}
	now = now.UTC()
	c := Contract{
		ID:               uuid.New(),
		ProposalID:       p.ID,
		JobPostingID:     post.ID,
		VAProfileID:      p.VAProfileID,
		CompanyProfileID: post.CompanyProfileID,
		Currency:         currency,
		StartDate:        now,
		Status:           StatusActive,
		Terms:            p.CoverLetter,
		Deliverables:     []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	switch p.BidType {
	case proposal.BidHourly:
		if !post.Budget.IsPositive() {
			return Contract{}, domain.Validation(domain.CodeInvalidInput, "hourly contract needs a posting budget to cap milestones")
		}
		c.ContractType = TypeHourly
		c.HourlyRate = p.BidAmount
		c.Amount = post.Budget
	default:
		c.ContractType = TypeFixed
		c.Amount = p.BidAmount
	}
	return c, nil
}

func (c Contract) Transition(to Status, now time.Time) (Contract, error) {
	if !CanTransition(c.Status, to) {
		return c, domain.Conflict(domain.CodeInvalidTransition, "contract cannot move from %s to %s", c.Status, to)
	}
	now = now.UTC()
	c.Status = to
	c.UpdatedAt = now
	if to == StatusCompleted || to == StatusTerminated {
		if c.EndDate == nil {
			c.EndDate = &now
		}
	}
	return c, nil
}

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobActive    JobStatus = "active"
	JobPaused    JobStatus = "paused"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
)

func ParseJobStatus(s string) (JobStatus, error) {
	switch st := JobStatus(s); st {
	case JobPending, JobActive, JobPaused, JobCompleted, JobCancelled:
		return st, nil
	default:
		return "", domain.Validation(domain.CodeInvalidStatus, "invalid job status %q", s)
	}
}

// Job is the operational record of one contract. It copies the contract and posting fields it needs so later
// posting edits do not change it.
type Job struct {
	ID               uuid.UUID
	ContractID       uuid.UUID
	JobPostingID     uuid.UUID
	VAProfileID      uuid.UUID
	CompanyProfileID uuid.UUID
	Title            string
	Description      string
	Budget           decimal.Decimal
	HourlyRate       decimal.Decimal
	StartDate        time.Time
	EndDate          *time.Time
	Status           JobStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewJob(c Contract, post posting.Posting, now time.Time) Job {
	now = now.UTC()
	j := Job{
		ID:               uuid.New(),
		ContractID:       c.ID,
		JobPostingID:     c.JobPostingID,
		VAProfileID:      c.VAProfileID,
		CompanyProfileID: c.CompanyProfileID,
		Title:            post.Title,
		Description:      post.Description,
		Budget:           c.Amount,
		HourlyRate:       c.HourlyRate,
		StartDate:        c.StartDate,
		Status:           JobActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if c.EndDate != nil {
		end := *c.EndDate
		j.EndDate = &end
	}
	return j
}
