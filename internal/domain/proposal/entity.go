package proposal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusWithdrawn
}

type BidType string

const (
	BidFixed  BidType = "fixed"
	BidHourly BidType = "hourly"
)

func ParseBidType(s string) (BidType, error) {
	switch b := BidType(s); b {
	case BidFixed, BidHourly:
		return b, nil
	default:
		return "", domain.Validation(domain.CodeInvalidInput, "invalid bid type %q", s)
	}
}

type Outcome string

const (
	OutcomeAccept Outcome = "accept"
	OutcomeReject Outcome = "reject"
)

func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case OutcomeAccept, OutcomeReject:
		return o, nil
	default:
		return "", domain.Validation(domain.CodeInvalidStatus, "invalid decision %q", s)
	}
}

func (o Outcome) Status() Status {
	if o == OutcomeAccept {
		return StatusAccepted
	}
	return StatusRejected
}

type Proposal struct {
	ID                uuid.UUID
	JobPostingID      uuid.UUID
	VAProfileID       uuid.UUID
	BidType           BidType
	BidAmount         decimal.Decimal
	CoverLetter       string
	EstimatedDuration string
	Status            Status
	RespondedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CanTransition allows only the single step out of pending; every other status is terminal.
func CanTransition(from, to Status) bool {
	if from != StatusPending {
		return false
	}
	return to == StatusAccepted || to == StatusRejected || to == StatusWithdrawn
}

func (p Proposal) Transition(to Status, at time.Time) (Proposal, error) {
	if !CanTransition(p.Status, to) {
		return p, domain.Conflict(domain.CodeInvalidTransition, "proposal cannot move from %s to %s", p.Status, to)
	}
	at = at.UTC()
	p.Status = to
	p.RespondedAt = &at
	p.UpdatedAt = at
	return p, nil
}
