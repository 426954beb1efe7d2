package timesheet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

const maxSpan = 24 * time.Hour

var secondsPerHour = decimal.NewFromInt(3600)

type Timesheet struct {
	ID          uuid.UUID
	ContractID  uuid.UUID
	VAProfileID uuid.UUID
	JobID       uuid.UUID
	Date        time.Time
	StartTime   time.Time
	EndTime     time.Time
	TotalHours  decimal.Decimal
	Description string
	Status      Status
	ApprovedBy  *uuid.UUID
	ApprovedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ComputeHours returns end-start in hours rounded to two decimal places.
func ComputeHours(start, end time.Time) decimal.Decimal {
	secs := decimal.NewFromInt(int64(end.Sub(start) / time.Second))
	return secs.Div(secondsPerHour).Round(2)
}

// ValidateHours checks the logged range and returns the hours to store. A claimed total must match the range
// within tolerance; when no total is claimed the computed value is used.
func ValidateHours(start, end time.Time, claimed *decimal.Decimal, tolerance decimal.Decimal) (decimal.Decimal, error) {
	if !end.After(start) {
		return decimal.Zero, domain.Validation(domain.CodeInvalidInput, "end_time must be after start_time")
	}
	if end.Sub(start) > maxSpan {
		return decimal.Zero, domain.Validation(domain.CodeInvalidInput, "a timesheet may not span more than 24 hours")
	}

	computed := ComputeHours(start, end)
	if !computed.IsPositive() {
		return decimal.Zero, domain.Validation(domain.CodeInvalidInput, "total hours must be positive")
	}
	if claimed == nil {
		return computed, nil
	}
	if !claimed.IsPositive() {
		return decimal.Zero, domain.Validation(domain.CodeInvalidInput, "total_hours must be positive")
	}
	if claimed.Sub(computed).Abs().GreaterThan(tolerance) {
		return decimal.Zero, domain.Validation(domain.CodeHoursMismatch,
			"total_hours %s does not match logged range of %s hours", claimed.String(), computed.String())
	}
	return computed, nil
}

// ClockRange combines a calendar date with HH:MM start and end clocks in UTC.
func ClockRange(date time.Time, start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse("15:04", start)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validation(domain.CodeInvalidInput, "invalid start_time %q", start)
	}
	e, err := time.Parse("15:04", end)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validation(domain.CodeInvalidInput, "invalid end_time %q", end)
	}
	y, m, d := date.UTC().Date()
	from := time.Date(y, m, d, s.Hour(), s.Minute(), 0, 0, time.UTC)
	to := time.Date(y, m, d, e.Hour(), e.Minute(), 0, 0, time.UTC)
	return from, to, nil
}

func (t Timesheet) Approve(approver uuid.UUID, at time.Time) (Timesheet, error) {
	if t.Status != StatusPending {
		return t, domain.Conflict(domain.CodeInvalidTransition, "timesheet is already %s", t.Status)
	}
	at = at.UTC()
	t.Status = StatusApproved
	t.ApprovedBy = &approver
	t.ApprovedAt = &at
	t.UpdatedAt = at
	return t, nil
}
