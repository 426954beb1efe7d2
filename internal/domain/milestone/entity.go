package milestone

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusApproved  Status = "approved"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusCompleted, StatusApproved:
		return st, nil
	default:
		return "", domain.Validation(domain.CodeInvalidStatus, "invalid milestone status %q", s)
	}
}

// next is the only status each state may move to.
var next = map[Status]Status{
	StatusPending:   StatusCompleted,
	StatusCompleted: StatusApproved,
}

func CanTransition(from, to Status) bool {
	n, ok := next[from]
	return ok && n == to
}

type Milestone struct {
	ID          uuid.UUID
	ContractID  uuid.UUID
	JobID       uuid.UUID
	Title       string
	Description string
	Amount      decimal.Decimal
	DueDate     *time.Time
	Status      Status
	CompletedAt *time.Time
	ApprovedAt  *time.Time
	Attachments []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transition moves the milestone one step forward. Missing timestamps default to now; an approval may not
// predate the completion it approves.
func (m Milestone) Transition(to Status, completedAt, approvedAt *time.Time, now time.Time) (Milestone, error) {
	if !CanTransition(m.Status, to) {
		return m, domain.Conflict(domain.CodeInvalidTransition, "milestone cannot move from %s to %s", m.Status, to)
	}
	now = now.UTC()

	switch to {
	case StatusCompleted:
		at := now
		if completedAt != nil {
			at = completedAt.UTC()
		}
		if at.Before(m.CreatedAt) {
			return m, domain.Validation(domain.CodeInvalidTimestamps, "completed_at precedes milestone creation")
		}
		m.CompletedAt = &at
	case StatusApproved:
		at := now
		if approvedAt != nil {
			at = approvedAt.UTC()
		}
		if m.CompletedAt != nil && at.Before(*m.CompletedAt) {
			return m, domain.Validation(domain.CodeInvalidTimestamps, "approved_at must not precede completed_at")
		}
		m.ApprovedAt = &at
	}

	m.Status = to
	m.UpdatedAt = now
	return m, nil
}

// CheckBudget fails when adding amount to what is already allocated would exceed the contract total.
func CheckBudget(contractAmount, allocated, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.Validation(domain.CodeInvalidInput, "milestone amount must be positive")
	}
	if allocated.Add(amount).GreaterThan(contractAmount) {
		return domain.Conflict(domain.CodeMilestoneBudgetExceeded,
			"milestones would total %s, contract amount is %s", allocated.Add(amount), contractAmount)
	}
	return nil
}
