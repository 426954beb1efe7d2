package repository

import (
	"context"

	"vahire/internal/database"
)

type PostgresStore struct {
	db   database.DB
	q    database.Querier
	inTx bool
}

func NewPostgresStore(db database.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

func (s *PostgresStore) Accounts() AccountRepository     { return &PostgresAccountRepository{db: s.q} }
func (s *PostgresStore) Profiles() ProfileRepository     { return &PostgresProfileRepository{db: s.q} }
func (s *PostgresStore) Postings() PostingRepository     { return &PostgresPostingRepository{db: s.q} }
func (s *PostgresStore) Proposals() ProposalRepository   { return &PostgresProposalRepository{db: s.q} }
func (s *PostgresStore) Contracts() ContractRepository   { return &PostgresContractRepository{db: s.q} }
func (s *PostgresStore) Jobs() JobRepository             { return &PostgresJobRepository{db: s.q} }
func (s *PostgresStore) Milestones() MilestoneRepository { return &PostgresMilestoneRepository{db: s.q} }
func (s *PostgresStore) Timesheets() TimesheetRepository { return &PostgresTimesheetRepository{db: s.q} }
func (s *PostgresStore) Payments() PaymentRepository     { return &PostgresPaymentRepository{db: s.q} }
func (s *PostgresStore) Reconcile() ReconcileRepository  { return &PostgresReconcileRepository{db: s.q} }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// WithinTx runs fn against a Store bound to one transaction. Calls on an already transactional Store join it.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return database.WithTx(ctx, s.db, func(tx database.Tx) error {
		return fn(&PostgresStore{db: s.db, q: tx, inTx: true})
	})
}
