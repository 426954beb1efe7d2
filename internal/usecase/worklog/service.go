package worklog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"vahire/internal/domain"
	"vahire/internal/domain/account"
	"vahire/internal/domain/contract"
	"vahire/internal/domain/milestone"
	"vahire/internal/domain/timesheet"
	"vahire/internal/notify"
	"vahire/internal/repository"
	"vahire/internal/usecase"
)

type MilestoneInput struct {
	Title       string
	Description string
	Amount      decimal.Decimal
	DueDate     *time.Time
	Attachments []string
}

type MilestoneStatusInput struct {
	Status      string
	CompletedAt *time.Time
	ApprovedAt  *time.Time
}

// TimesheetInput logs one block of work. Start and End are HH:MM clocks on Date; TotalHours is optional and is
// checked against the clocks when given.
type TimesheetInput struct {
	Date        time.Time
	Start       string
	End         string
	TotalHours  *decimal.Decimal
	Description string
}

type Service struct {
	store     repository.Store
	sink      notify.Sink
	rec       usecase.Recorder
	logger    *zap.Logger
	tolerance decimal.Decimal
	now       func() time.Time
}

func NewService(store repository.Store, sink notify.Sink, rec usecase.Recorder, hoursTolerance decimal.Decimal, logger *zap.Logger) *Service {
	if sink == nil {
		sink = notify.Nop{}
	}
	if rec == nil {
		rec = usecase.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if hoursTolerance.IsNegative() {
		hoursTolerance = decimal.Zero
	}
	return &Service{store: store, sink: sink, rec: rec, logger: logger, tolerance: hoursTolerance, now: time.Now}
}

// CreateMilestone adds a priced milestone. The contract row stays locked while the allocation is summed so
// concurrent creations cannot overshoot the contract amount together.
func (s *Service) CreateMilestone(ctx context.Context, actor account.Actor, contractID uuid.UUID, in MilestoneInput) (milestone.Milestone, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return milestone.Milestone{}, domain.Validation(domain.CodeInvalidInput, "title is required")
	}

	var (
		out milestone.Milestone
		c   contract.Contract
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		c, err = tx.Contracts().GetByIDForUpdate(ctx, contractID)
		if err != nil {
			return err
		}
		side, err := usecase.ContractSide(ctx, tx, actor, c)
		if err != nil {
			return err
		}
		if side != usecase.SideCompany && side != usecase.SideAdmin {
			return domain.Forbidden("only the contracting company may add milestones")
		}
		if c.Status == contract.StatusCompleted || c.Status == contract.StatusTerminated {
			return domain.Conflict(domain.CodeInvalidTransition, "contract is %s", c.Status)
		}

		allocated, err := tx.Milestones().SumByContract(ctx, c.ID)
		if err != nil {
			return err
		}
		if err := milestone.CheckBudget(c.Amount, allocated, in.Amount); err != nil {
			return err
		}
		job, err := tx.Jobs().GetByContractID(ctx, c.ID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		out = milestone.Milestone{
			ID:          uuid.New(),
			ContractID:  c.ID,
			JobID:       job.ID,
			Title:       title,
			Description: strings.TrimSpace(in.Description),
			Amount:      in.Amount,
			DueDate:     in.DueDate,
			Status:      milestone.StatusPending,
			Attachments: append([]string{}, in.Attachments...),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.Milestones().Create(ctx, out)
	})
	if err != nil {
		return milestone.Milestone{}, err
	}

	s.rec.Transition("milestone", string(out.Status))
	s.notifyParties(ctx, c, notify.NewEvent(notify.EventMilestoneCreated, map[string]any{
		"milestone_id": out.ID.String(),
		"contract_id":  c.ID.String(),
		"amount":       out.Amount.String(),
	}))
	return out, nil
}

// UpdateMilestoneStatus moves a milestone one step. The VA marks it completed; the company or an admin
// approves it.
func (s *Service) UpdateMilestoneStatus(ctx context.Context, actor account.Actor, id uuid.UUID, in MilestoneStatusInput) (milestone.Milestone, error) {
	to, err := milestone.ParseStatus(in.Status)
	if err != nil {
		return milestone.Milestone{}, err
	}

	var (
		out milestone.Milestone
		c   contract.Contract
	)
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		m, err := tx.Milestones().GetByID(ctx, id)
		if err != nil {
			return err
		}
		c, err = tx.Contracts().GetByID(ctx, m.ContractID)
		if err != nil {
			return err
		}
		side, err := usecase.ContractSide(ctx, tx, actor, c)
		if err != nil {
			return err
		}
		switch to {
		case milestone.StatusCompleted:
			if side != usecase.SideVA {
				return domain.Forbidden("only the contracted virtual assistant may complete a milestone")
			}
		case milestone.StatusApproved:
			if side != usecase.SideCompany && side != usecase.SideAdmin {
				return domain.Forbidden("only the contracting company may approve a milestone")
			}
		}

		from := m.Status
		if out, err = m.Transition(to, in.CompletedAt, in.ApprovedAt, s.now()); err != nil {
			return err
		}
		ok, err := tx.Milestones().UpdateStatusFrom(ctx, out, from)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict(domain.CodeInvalidTransition, "milestone changed concurrently")
		}
		return nil
	})
	if err != nil {
		return milestone.Milestone{}, err
	}

	s.rec.Transition("milestone", string(out.Status))
	s.notifyParties(ctx, c, notify.NewEvent(notify.EventMilestoneUpdated, map[string]any{
		"milestone_id": out.ID.String(),
		"contract_id":  c.ID.String(),
		"status":       string(out.Status),
	}))
	return out, nil
}

func (s *Service) ListMilestones(ctx context.Context, actor account.Actor, contractID uuid.UUID) ([]milestone.Milestone, error) {
	if err := s.requireParty(ctx, actor, contractID); err != nil {
		return nil, err
	}
	return s.store.Milestones().ListByContract(ctx, contractID)
}

// LogTimesheet records work by the contract's VA. Hours are derived from the clocks and rounded to two
// decimals; a claimed total must agree with them within the configured tolerance.
func (s *Service) LogTimesheet(ctx context.Context, actor account.Actor, contractID uuid.UUID, in TimesheetInput) (timesheet.Timesheet, error) {
	if in.Date.IsZero() {
		return timesheet.Timesheet{}, domain.Validation(domain.CodeInvalidInput, "date is required")
	}
	start, end, err := timesheet.ClockRange(in.Date, in.Start, in.End)
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	hours, err := timesheet.ValidateHours(start, end, in.TotalHours, s.tolerance)
	if err != nil {
		return timesheet.Timesheet{}, err
	}

	c, err := s.store.Contracts().GetByID(ctx, contractID)
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	side, err := usecase.ContractSide(ctx, s.store, actor, c)
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	if side != usecase.SideVA {
		return timesheet.Timesheet{}, domain.Forbidden("only the contracted virtual assistant may log time")
	}
	if c.Status != contract.StatusActive {
		return timesheet.Timesheet{}, domain.Conflict(domain.CodeInvalidTransition, "contract is %s", c.Status)
	}
	job, err := s.store.Jobs().GetByContractID(ctx, c.ID)
	if err != nil {
		return timesheet.Timesheet{}, err
	}

	now := s.now().UTC()
	y, m, d := in.Date.UTC().Date()
	ts := timesheet.Timesheet{
		ID:          uuid.New(),
		ContractID:  c.ID,
		VAProfileID: c.VAProfileID,
		JobID:       job.ID,
		Date:        time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		StartTime:   start,
		EndTime:     end,
		TotalHours:  hours,
		Description: strings.TrimSpace(in.Description),
		Status:      timesheet.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Timesheets().Create(ctx, ts); err != nil {
		return timesheet.Timesheet{}, err
	}

	s.rec.Transition("timesheet", string(ts.Status))
	s.notifyParties(ctx, c, notify.NewEvent(notify.EventTimesheetLogged, map[string]any{
		"timesheet_id": ts.ID.String(),
		"contract_id":  c.ID.String(),
		"total_hours":  ts.TotalHours.String(),
	}))
	return ts, nil
}

func (s *Service) ApproveTimesheet(ctx context.Context, actor account.Actor, id uuid.UUID) (timesheet.Timesheet, error) {
	ts, err := s.store.Timesheets().GetByID(ctx, id)
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	c, err := s.store.Contracts().GetByID(ctx, ts.ContractID)
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	side, err := usecase.ContractSide(ctx, s.store, actor, c)
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	if side != usecase.SideCompany && side != usecase.SideAdmin {
		return timesheet.Timesheet{}, domain.Forbidden("only the contracting company may approve time")
	}

	approved, err := ts.Approve(actor.AccountID, s.now())
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	ok, err := s.store.Timesheets().ApproveIfPending(ctx, approved)
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	if !ok {
		return timesheet.Timesheet{}, domain.Conflict(domain.CodeInvalidTransition, "timesheet is no longer pending")
	}

	s.rec.Transition("timesheet", string(approved.Status))
	s.notifyParties(ctx, c, notify.NewEvent(notify.EventTimesheetApproved, map[string]any{
		"timesheet_id": approved.ID.String(),
		"contract_id":  c.ID.String(),
	}))
	return approved, nil
}

func (s *Service) ListTimesheets(ctx context.Context, actor account.Actor, contractID uuid.UUID) ([]timesheet.Timesheet, error) {
	if err := s.requireParty(ctx, actor, contractID); err != nil {
		return nil, err
	}
	return s.store.Timesheets().ListByContract(ctx, contractID)
}

func (s *Service) requireParty(ctx context.Context, actor account.Actor, contractID uuid.UUID) error {
	c, err := s.store.Contracts().GetByID(ctx, contractID)
	if err != nil {
		return err
	}
	_, err = usecase.ContractSide(ctx, s.store, actor, c)
	return err
}

func (s *Service) notifyParties(ctx context.Context, c contract.Contract, ev notify.Event) {
	company, va, err := usecase.PartyAccounts(ctx, s.store, c.CompanyProfileID, c.VAProfileID)
	if err != nil {
		s.logger.Warn("resolve notification recipients", zap.String("event", ev.Type), zap.Error(err))
		return
	}
	s.sink.Notify(ctx, company, ev)
	s.sink.Notify(ctx, va, ev)
}
