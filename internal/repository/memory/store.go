// Package memory implements repository.Store on in-process maps. It backs the memory store driver and the
// usecase tests; a transaction holds the store lock for its whole duration and restores a snapshot when it fails.
package memory

import (
	"context"
	"sync"

	"vahire/internal/domain"
	"vahire/internal/domain/account"
	"vahire/internal/domain/contract"
	"vahire/internal/domain/milestone"
	"vahire/internal/domain/payment"
	"vahire/internal/domain/posting"
	"vahire/internal/domain/profile"
	"vahire/internal/domain/proposal"
	"vahire/internal/domain/timesheet"
	"vahire/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type state struct {
	accounts   map[uuid.UUID]account.Account
	vas        map[uuid.UUID]profile.VAProfile
	companies  map[uuid.UUID]profile.CompanyProfile
	skills     []profile.Skill
	postings   map[uuid.UUID]posting.Posting
	proposals  map[uuid.UUID]proposal.Proposal
	contracts  map[uuid.UUID]contract.Contract
	jobs       map[uuid.UUID]contract.Job
	milestones map[uuid.UUID]milestone.Milestone
	timesheets map[uuid.UUID]timesheet.Timesheet
	payments   map[uuid.UUID]payment.Payment
	totals     map[uuid.UUID]decimal.Decimal
}

func newState() *state {
	return &state{
		accounts:   map[uuid.UUID]account.Account{},
		vas:        map[uuid.UUID]profile.VAProfile{},
		companies:  map[uuid.UUID]profile.CompanyProfile{},
		postings:   map[uuid.UUID]posting.Posting{},
		proposals:  map[uuid.UUID]proposal.Proposal{},
		contracts:  map[uuid.UUID]contract.Contract{},
		jobs:       map[uuid.UUID]contract.Job{},
		milestones: map[uuid.UUID]milestone.Milestone{},
		timesheets: map[uuid.UUID]timesheet.Timesheet{},
		payments:   map[uuid.UUID]payment.Payment{},
		totals:     map[uuid.UUID]decimal.Decimal{},
	}
}

// clone copies every map. Stored values are replaced, never mutated in place, so a shallow copy is a snapshot.
func (s *state) clone() *state {
	return &state{
		accounts:   copyMap(s.accounts),
		vas:        copyMap(s.vas),
		companies:  copyMap(s.companies),
		skills:     append([]profile.Skill(nil), s.skills...),
		postings:   copyMap(s.postings),
		proposals:  copyMap(s.proposals),
		contracts:  copyMap(s.contracts),
		jobs:       copyMap(s.jobs),
		milestones: copyMap(s.milestones),
		timesheets: copyMap(s.timesheets),
		payments:   copyMap(s.payments),
		totals:     copyMap(s.totals),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type Store struct {
	mu   *sync.Mutex
	st   **state
	inTx bool
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store carrying the given skills catalog.
func New(skills []profile.Skill) *Store {
	st := newState()
	st.skills = append([]profile.Skill(nil), skills...)
	return &Store{mu: &sync.Mutex{}, st: &st}
}

func (s *Store) data() *state { return *s.st }

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Accounts() repository.AccountRepository     { return accountRepo{s} }
func (s *Store) Profiles() repository.ProfileRepository     { return profileRepo{s} }
func (s *Store) Postings() repository.PostingRepository     { return postingRepo{s} }
func (s *Store) Proposals() repository.ProposalRepository   { return proposalRepo{s} }
func (s *Store) Contracts() repository.ContractRepository   { return contractRepo{s} }
func (s *Store) Jobs() repository.JobRepository             { return jobRepo{s} }
func (s *Store) Milestones() repository.MilestoneRepository { return milestoneRepo{s} }
func (s *Store) Timesheets() repository.TimesheetRepository { return timesheetRepo{s} }
func (s *Store) Payments() repository.PaymentRepository     { return paymentRepo{s} }
func (s *Store) Reconcile() repository.ReconcileRepository  { return reconcileRepo{s} }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data().clone()
	defer func() {
		if p := recover(); p != nil {
			*s.st = snapshot
			panic(p)
		}
		if err != nil {
			*s.st = snapshot
		}
	}()

	return fn(&Store{mu: s.mu, st: s.st, inTx: true})
}

func conflict(code, entity, constraint string) error {
	return domain.Conflict(code, "%s violates %s", entity, constraint)
}

func notFound(entity string) error {
	return domain.NotFound(domain.CodeNotFound, "%s not found", entity)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}
