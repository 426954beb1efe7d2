package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vahire/internal/domain"
	"vahire/internal/domain/account"
	"vahire/internal/pkg/workerpool"
	"vahire/internal/repository"
	"vahire/internal/usecase/engagement"
)

const (
	defaultLimit  = 100
	repairPage    = 100
	repairWorkers = 4
)

// Report lists the consistency problems found across postings, proposals, contracts and jobs. A section that
// could not be read is named in Failed and left empty.
type Report struct {
	CounterDrift        []repository.CounterDrift
	UnformedProposals   []repository.UnformedProposal
	ContractsWithoutJob []repository.ContractWithoutJob
	Failed              []string
	GeneratedAt         time.Time
}

func (r Report) Clean() bool {
	return len(r.CounterDrift) == 0 && len(r.UnformedProposals) == 0 && len(r.ContractsWithoutJob) == 0 && len(r.Failed) == 0
}

type Repair struct {
	ContractsFormed int
	JobsCreated     int
}

type Service struct {
	store      repository.Store
	engagement *engagement.Service
	logger     *zap.Logger
	now        func() time.Time
	page       int
}

func NewService(store repository.Store, eng *engagement.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, engagement: eng, logger: logger, now: time.Now, page: repairPage}
}

// drain lists pages of findings and hands each unseen item to fn until a page brings nothing new. Repaired
// items drop out of the listing, so the next page starts with whatever is left. Items fn fails on are not
// retried within the same call.
func drain[T any](ctx context.Context, page int, list func(context.Context, int) ([]T, error), key func(T) uuid.UUID, fn func([]T) error) error {
	seen := map[uuid.UUID]struct{}{}
	var errs []error
	for {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		items, err := list(ctx, page)
		if err != nil {
			return errors.Join(append(errs, err)...)
		}
		fresh := items[:0:0]
		for _, it := range items {
			k := key(it)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			fresh = append(fresh, it)
		}
		if len(fresh) == 0 {
			return errors.Join(errs...)
		}
		if err := fn(fresh); err != nil {
			errs = append(errs, err)
		}
	}
}

func (s *Service) Report(ctx context.Context, actor account.Actor, limit int) (Report, error) {
	if !actor.IsAdmin() {
		return Report{}, domain.Forbidden("reconciliation is admin only")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	var (
		out Report

		errDrift    error
		errUnformed error
		errNoJob    error
	)
	repo := s.store.Reconcile()

	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		out.CounterDrift, errDrift = repo.ListCounterDrift(ctx, limit)
		if errDrift != nil {
			s.logger.Error("reconcile step failed", zap.String("step", "counter_drift"), zap.Error(errDrift))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		out.UnformedProposals, errUnformed = repo.ListUnformedAcceptedProposals(ctx, limit)
		if errUnformed != nil {
			s.logger.Error("reconcile step failed", zap.String("step", "unformed_proposals"), zap.Error(errUnformed))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		out.ContractsWithoutJob, errNoJob = repo.ListContractsWithoutJob(ctx, limit)
		if errNoJob != nil {
			s.logger.Error("reconcile step failed", zap.String("step", "contracts_without_job"), zap.Error(errNoJob))
		}
	}()

	wg.Wait()

	if errDrift != nil {
		out.Failed = append(out.Failed, "counter_drift")
	}
	if errUnformed != nil {
		out.Failed = append(out.Failed, "unformed_proposals")
	}
	if errNoJob != nil {
		out.Failed = append(out.Failed, "contracts_without_job")
	}
	out.GeneratedAt = s.now().UTC()
	return out, nil
}

// RepairCounters resets every drifted proposal counter to the true count of proposal rows.
func (s *Service) RepairCounters(ctx context.Context, actor account.Actor) ([]repository.CounterDrift, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbidden("reconciliation is admin only")
	}

	var fixed []repository.CounterDrift
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		fixed = nil
		repo := tx.Reconcile()
		return drain(ctx, s.page, repo.ListCounterDrift,
			func(d repository.CounterDrift) uuid.UUID { return d.PostingID },
			func(drift []repository.CounterDrift) error {
				for _, d := range drift {
					if err := repo.ResetProposalCount(ctx, d.PostingID, d.Actual); err != nil {
						return err
					}
					fixed = append(fixed, d)
				}
				return nil
			})
	})
	if err != nil {
		return nil, err
	}
	for _, d := range fixed {
		s.logger.Info("proposal counter repaired",
			zap.String("job_posting_id", d.PostingID.String()),
			zap.Int("recorded", d.Recorded),
			zap.Int("actual", d.Actual),
		)
	}
	return fixed, nil
}

// RepairFormations forms the missing contract or job of every accepted proposal found incomplete. Repairs run
// on a small worker pool; a failing item does not stop the others and every failure is returned joined.
func (s *Service) RepairFormations(ctx context.Context, actor account.Actor) (Repair, error) {
	if !actor.IsAdmin() {
		return Repair{}, domain.Forbidden("reconciliation is admin only")
	}
	var formed, jobs atomic.Int64
	result := func() Repair {
		return Repair{ContractsFormed: int(formed.Load()), JobsCreated: int(jobs.Load())}
	}

	repo := s.store.Reconcile()
	errForm := drain(ctx, s.page, repo.ListUnformedAcceptedProposals,
		func(u repository.UnformedProposal) uuid.UUID { return u.ProposalID },
		func(unformed []repository.UnformedProposal) error {
			return workerpool.Each(ctx, repairWorkers, unformed, func(ctx context.Context, u repository.UnformedProposal) error {
				f, err := s.engagement.FormContract(ctx, actor, u.ProposalID)
				if err != nil {
					s.logger.Error("contract formation repair failed", zap.String("proposal_id", u.ProposalID.String()), zap.Error(err))
					return err
				}
				if f.Created {
					formed.Add(1)
				}
				return nil
			})
		})

	errJobs := drain(ctx, s.page, repo.ListContractsWithoutJob,
		func(o repository.ContractWithoutJob) uuid.UUID { return o.ContractID },
		func(orphans []repository.ContractWithoutJob) error {
			return workerpool.Each(ctx, repairWorkers, orphans, func(ctx context.Context, o repository.ContractWithoutJob) error {
				_, created, err := s.engagement.CreateJobFromContract(ctx, actor, o.ContractID)
				if err != nil {
					s.logger.Error("job creation repair failed", zap.String("contract_id", o.ContractID.String()), zap.Error(err))
					return err
				}
				if created {
					jobs.Add(1)
				}
				return nil
			})
		})
	return result(), errors.Join(errForm, errJobs)
}
