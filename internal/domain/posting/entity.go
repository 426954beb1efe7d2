package posting

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
	StatusFilled Status = "filled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusOpen, StatusClosed, StatusFilled:
		return st, nil
	default:
		return "", domain.Validation(domain.CodeInvalidStatus, "invalid posting status %q", s)
	}
}

type Posting struct {
	ID               uuid.UUID
	CompanyProfileID uuid.UUID
	Title            string
	Description      string
	Budget           decimal.Decimal
	RateMin          decimal.Decimal
	RateMax          decimal.Decimal
	Status           Status
	Views            int64
	ProposalCount    int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p Posting) Validate() error {
	if p.Title == "" {
		return domain.Validation(domain.CodeInvalidInput, "title is required")
	}
	if p.Budget.IsNegative() || p.RateMin.IsNegative() || p.RateMax.IsNegative() {
		return domain.Validation(domain.CodeInvalidInput, "budget and rates must not be negative")
	}
	if !p.RateMax.IsZero() && p.RateMin.GreaterThan(p.RateMax) {
		return domain.Validation(domain.CodeInvalidInput, "rate_min must not exceed rate_max")
	}
	return nil
}
