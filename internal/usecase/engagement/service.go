package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vahire/internal/domain"
	"vahire/internal/domain/account"
	"vahire/internal/domain/contract"
	"vahire/internal/domain/milestone"
	"vahire/internal/domain/payment"
	"vahire/internal/domain/timesheet"
	"vahire/internal/notify"
	"vahire/internal/pkg/docschema"
	"vahire/internal/repository"
	"vahire/internal/usecase"
)

type View string

const (
	ViewBasic          View = "basic"
	ViewWithMilestones View = "with_milestones"
	ViewFull           View = "full"
)

func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case "":
		return ViewBasic, nil
	case ViewBasic, ViewWithMilestones, ViewFull:
		return v, nil
	default:
		return "", domain.Validation(domain.CodeInvalidInput, "unknown contract view %q", s)
	}
}

// ContractView is one of the closed set of contract projections. Fields outside the requested view stay nil.
type ContractView struct {
	Contract   contract.Contract
	Milestones []milestone.Milestone
	Timesheets []timesheet.Timesheet
	Job        *contract.Job
	Payments   []payment.Payment
}

// ContractUpdate is the correction a company or admin may make after formation.
type ContractUpdate struct {
	Status *string
	Amount *decimal.Decimal
}

// Terms are the agreement documents a company attaches when it accepts a proposal. They are fixed once the
// contract exists.
type Terms struct {
	Terms           *string
	Deliverables    []string
	MilestonesData  json.RawMessage
	PaymentSchedule json.RawMessage
}

func (t Terms) IsZero() bool {
	return t.Terms == nil && t.Deliverables == nil && len(t.MilestonesData) == 0 && len(t.PaymentSchedule) == 0
}

func (t Terms) apply(c contract.Contract) contract.Contract {
	if t.Terms != nil {
		c.Terms = *t.Terms
	}
	if t.Deliverables != nil {
		c.Deliverables = append([]string(nil), t.Deliverables...)
	}
	if len(t.MilestonesData) > 0 {
		c.MilestonesData = t.MilestonesData
	}
	if len(t.PaymentSchedule) > 0 {
		c.PaymentSchedule = t.PaymentSchedule
	}
	return c
}

type Service struct {
	store    repository.Store
	docs     *docschema.Validator
	sink     notify.Sink
	rec      usecase.Recorder
	logger   *zap.Logger
	currency string
	now      func() time.Time
}

func NewService(store repository.Store, docs *docschema.Validator, sink notify.Sink, rec usecase.Recorder, currency string, logger *zap.Logger) *Service {
	if sink == nil {
		sink = notify.Nop{}
	}
	if rec == nil {
		rec = usecase.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = "USD"
	}
	return &Service{store: store, docs: docs, sink: sink, rec: rec, logger: logger, currency: currency, now: time.Now}
}

func (s *Service) Currency() string { return s.currency }

// FormContract forms the contract and job of an accepted proposal. It is safe to replay: a second call returns
// the contract formed by the first.
func (s *Service) FormContract(ctx context.Context, actor account.Actor, proposalID uuid.UUID) (Formed, error) {
	var out Formed
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Proposals().GetByIDForUpdate(ctx, proposalID)
		if err != nil {
			return err
		}
		post, err := tx.Postings().GetByID(ctx, p.JobPostingID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() {
			company, err := usecase.CompanyOf(ctx, tx, actor)
			if err != nil {
				return err
			}
			if company.ID != post.CompanyProfileID {
				return domain.Forbidden("proposal is for another company's posting")
			}
		}
		out, err = Form(ctx, tx, p, s.currency, Terms{}, s.now())
		return err
	})
	if err != nil {
		return Formed{}, err
	}
	if out.Created {
		s.Announce(ctx, out)
	}
	return out, nil
}

// Announce records and broadcasts a newly formed engagement.
func (s *Service) Announce(ctx context.Context, f Formed) {
	s.rec.Transition("contract", string(f.Contract.Status))
	s.rec.Transition("job", string(f.Job.Status))
	s.notifyParties(ctx, f.Contract.CompanyProfileID, f.Contract.VAProfileID, notify.NewEvent(notify.EventContractFormed, map[string]any{
		"contract_id": f.Contract.ID.String(),
		"job_id":      f.Job.ID.String(),
		"proposal_id": f.Contract.ProposalID.String(),
		"amount":      f.Contract.Amount.String(),
	}))
}

// CreateJobFromContract returns the contract's job, creating it if missing. A contract never has more than one.
func (s *Service) CreateJobFromContract(ctx context.Context, actor account.Actor, contractID uuid.UUID) (contract.Job, bool, error) {
	var (
		job     contract.Job
		created bool
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		c, err := tx.Contracts().GetByIDForUpdate(ctx, contractID)
		if err != nil {
			return err
		}
		if err := requireManager(ctx, tx, actor, c); err != nil {
			return err
		}
		job, created, err = ensureJob(ctx, tx, c, s.now())
		return err
	})
	if err != nil {
		return contract.Job{}, false, err
	}
	if created {
		s.rec.Transition("job", string(job.Status))
	}
	return job, created, nil
}

// GetContract loads the requested projection. The related lists are read concurrently.
func (s *Service) GetContract(ctx context.Context, actor account.Actor, id uuid.UUID, view View) (ContractView, error) {
	c, err := s.store.Contracts().GetByID(ctx, id)
	if err != nil {
		return ContractView{}, err
	}
	if _, err := usecase.ContractSide(ctx, s.store, actor, c); err != nil {
		return ContractView{}, err
	}

	out := ContractView{Contract: c}
	if view == ViewBasic {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ms, err := s.store.Milestones().ListByContract(gctx, id)
		out.Milestones = ms
		return err
	})
	if view == ViewFull {
		g.Go(func() error {
			ts, err := s.store.Timesheets().ListByContract(gctx, id)
			out.Timesheets = ts
			return err
		})
		g.Go(func() error {
			ps, err := s.store.Payments().ListByContract(gctx, id)
			out.Payments = ps
			return err
		})
		g.Go(func() error {
			j, err := s.store.Jobs().GetByContractID(gctx, id)
			if domain.KindOf(err) == domain.KindNotFound {
				return nil
			}
			if err != nil {
				return err
			}
			out.Job = &j
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ContractView{}, err
	}
	return out, nil
}

// UpdateContract applies a company or admin correction of status or amount. The amount may never drop below
// what the contract's milestones already allocate. Completing or terminating the contract closes its job in
// the same transaction.
func (s *Service) UpdateContract(ctx context.Context, actor account.Actor, id uuid.UUID, in ContractUpdate) (contract.Contract, error) {
	var (
		out       contract.Contract
		changed   bool
		closedJob *contract.Job
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		c, err := tx.Contracts().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := requireManager(ctx, tx, actor, c); err != nil {
			return err
		}
		now := s.now()

		if in.Amount != nil {
			if !in.Amount.IsPositive() {
				return domain.Validation(domain.CodeInvalidInput, "amount must be positive")
			}
			allocated, err := tx.Milestones().SumByContract(ctx, c.ID)
			if err != nil {
				return err
			}
			if in.Amount.LessThan(allocated) {
				return domain.Conflict(domain.CodeMilestoneBudgetExceeded,
					"amount %s is below the %s already allocated to milestones", in.Amount.String(), allocated.String())
			}
			c.Amount = *in.Amount
		}
		if in.Status != nil {
			to, err := contract.ParseStatus(*in.Status)
			if err != nil {
				return err
			}
			if to != c.Status {
				if c, err = c.Transition(to, now); err != nil {
					return err
				}
				changed = true
			}
		}
		c.UpdatedAt = now.UTC()
		if err := tx.Contracts().Update(ctx, c); err != nil {
			return err
		}
		out = c

		if !changed {
			return nil
		}
		j, closed, err := closeJob(ctx, tx, c, now)
		if err != nil {
			return err
		}
		if closed {
			closedJob = &j
		}
		return nil
	})
	if err != nil {
		return contract.Contract{}, err
	}

	if changed {
		s.rec.Transition("contract", string(out.Status))
	}
	if closedJob != nil {
		s.rec.Transition("job", string(closedJob.Status))
	}
	s.notifyParties(ctx, out.CompanyProfileID, out.VAProfileID, notify.NewEvent(notify.EventContractUpdated, map[string]any{
		"contract_id": out.ID.String(),
		"status":      string(out.Status),
		"amount":      out.Amount.String(),
	}))
	return out, nil
}

// closeJob moves the job of a completed or terminated contract to its matching final status. Other contract
// statuses, a missing job and an already final job are left alone.
func closeJob(ctx context.Context, tx repository.Store, c contract.Contract, now time.Time) (contract.Job, bool, error) {
	var to contract.JobStatus
	switch c.Status {
	case contract.StatusCompleted:
		to = contract.JobCompleted
	case contract.StatusTerminated:
		to = contract.JobCancelled
	default:
		return contract.Job{}, false, nil
	}

	j, err := tx.Jobs().GetByContractID(ctx, c.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return contract.Job{}, false, nil
	}
	if err != nil {
		return contract.Job{}, false, err
	}
	if j.Status == contract.JobCompleted || j.Status == contract.JobCancelled {
		return j, false, nil
	}

	now = now.UTC()
	j.Status = to
	j.UpdatedAt = now
	if j.EndDate == nil {
		j.EndDate = &now
	}
	if err := tx.Jobs().UpdateStatus(ctx, j); err != nil {
		return contract.Job{}, false, err
	}
	return j, true, nil
}

func (s *Service) GetJob(ctx context.Context, actor account.Actor, id uuid.UUID) (contract.Job, error) {
	j, err := s.store.Jobs().GetByID(ctx, id)
	if err != nil {
		return contract.Job{}, err
	}
	if _, err := usecase.SideOf(ctx, s.store, actor, j.CompanyProfileID, j.VAProfileID); err != nil {
		return contract.Job{}, err
	}
	return j, nil
}

// UpdateJobStatus sets a job's status. Completing or cancelling the job closes its contract in the same
// transaction; both parties are told afterwards and a failed notification never fails the update.
func (s *Service) UpdateJobStatus(ctx context.Context, actor account.Actor, id uuid.UUID, status string) (contract.Job, error) {
	to, err := contract.ParseJobStatus(status)
	if err != nil {
		return contract.Job{}, err
	}

	var (
		out       contract.Job
		closedAs  contract.Status
		closedNow bool
		unchanged bool
	)
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		j, err := tx.Jobs().GetByID(ctx, id)
		if err != nil {
			return err
		}
		c, err := tx.Contracts().GetByIDForUpdate(ctx, j.ContractID)
		if err != nil {
			return err
		}
		if err := requireManager(ctx, tx, actor, c); err != nil {
			return err
		}
		if j.Status == contract.JobCompleted || j.Status == contract.JobCancelled {
			if j.Status == to {
				out, unchanged = j, true
				return nil
			}
			return domain.Conflict(domain.CodeInvalidTransition, "job is already %s", j.Status)
		}

		now := s.now().UTC()
		j.Status = to
		j.UpdatedAt = now

		var closeTo contract.Status
		switch to {
		case contract.JobCompleted:
			closeTo = contract.StatusCompleted
		case contract.JobCancelled:
			closeTo = contract.StatusTerminated
		}
		if closeTo != "" {
			if j.EndDate == nil {
				j.EndDate = &now
			}
			if c.Status != closeTo {
				if c, err = c.Transition(closeTo, now); err != nil {
					return err
				}
				if err := tx.Contracts().Update(ctx, c); err != nil {
					return err
				}
				closedAs, closedNow = c.Status, true
			}
		}
		if err := tx.Jobs().UpdateStatus(ctx, j); err != nil {
			return err
		}
		out = j
		return nil
	})
	if err != nil {
		return contract.Job{}, err
	}
	if unchanged {
		return out, nil
	}

	s.rec.Transition("job", string(out.Status))
	if closedNow {
		s.rec.Transition("contract", string(closedAs))
	}

	evType := notify.EventJobStatusChanged
	if out.Status == contract.JobCompleted {
		evType = notify.EventJobCompleted
	}
	s.notifyParties(ctx, out.CompanyProfileID, out.VAProfileID, notify.NewEvent(evType, map[string]any{
		"job_id":      out.ID.String(),
		"contract_id": out.ContractID.String(),
		"status":      string(out.Status),
	}))
	return out, nil
}

// ValidateTerms checks the JSON documents of t against their schemas.
func (s *Service) ValidateTerms(ctx context.Context, t Terms) error {
	if s.docs == nil {
		return nil
	}
	if err := s.docs.Validate(ctx, docschema.MilestonesData, t.MilestonesData); err != nil {
		return err
	}
	return s.docs.Validate(ctx, docschema.PaymentSchedule, t.PaymentSchedule)
}

func (s *Service) notifyParties(ctx context.Context, companyProfileID, vaProfileID uuid.UUID, ev notify.Event) {
	company, va, err := usecase.PartyAccounts(ctx, s.store, companyProfileID, vaProfileID)
	if err != nil {
		s.logger.Warn("resolve notification recipients", zap.String("event", ev.Type), zap.Error(err))
		return
	}
	s.sink.Notify(ctx, company, ev)
	s.sink.Notify(ctx, va, ev)
}

// requireManager allows the contract's company and admins.
func requireManager(ctx context.Context, store repository.Store, actor account.Actor, c contract.Contract) error {
	side, err := usecase.ContractSide(ctx, store, actor, c)
	if err != nil {
		return err
	}
	if side != usecase.SideCompany && side != usecase.SideAdmin {
		return domain.Forbidden("only the contracting company may do this")
	}
	return nil
}
