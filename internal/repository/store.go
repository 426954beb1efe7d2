package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain/account"
	"vahire/internal/domain/contract"
	"vahire/internal/domain/milestone"
	"vahire/internal/domain/payment"
	"vahire/internal/domain/posting"
	"vahire/internal/domain/profile"
	"vahire/internal/domain/proposal"
	"vahire/internal/domain/timesheet"
)

// Store groups the repositories of one unit of work. Repositories obtained from the Store passed to WithinTx
// see and commit their writes together.
type Store interface {
	Accounts() AccountRepository
	Profiles() ProfileRepository
	Postings() PostingRepository
	Proposals() ProposalRepository
	Contracts() ContractRepository
	Jobs() JobRepository
	Milestones() MilestoneRepository
	Timesheets() TimesheetRepository
	Payments() PaymentRepository
	Reconcile() ReconcileRepository

	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

type AccountRepository interface {
	Create(ctx context.Context, a account.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role account.Role) error
	MarkProfileComplete(ctx context.Context, id uuid.UUID) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

type ProfileRepository interface {
	CreateVA(ctx context.Context, p profile.VAProfile) error
	UpdateVA(ctx context.Context, p profile.VAProfile) error
	GetVAByID(ctx context.Context, id uuid.UUID) (profile.VAProfile, error)
	GetVAByAccountID(ctx context.Context, accountID uuid.UUID) (profile.VAProfile, error)
	IncrementVAViews(ctx context.Context, id uuid.UUID) (profile.VAProfile, error)
	// UpdateRatingIfVersion writes the rating only when the row still carries expectedVersion.
	UpdateRatingIfVersion(ctx context.Context, id uuid.UUID, expectedVersion int64, avg float64, total int) (bool, error)

	CreateCompany(ctx context.Context, p profile.CompanyProfile) error
	UpdateCompany(ctx context.Context, p profile.CompanyProfile) error
	GetCompanyByID(ctx context.Context, id uuid.UUID) (profile.CompanyProfile, error)
	GetCompanyByAccountID(ctx context.Context, accountID uuid.UUID) (profile.CompanyProfile, error)

	ListSkills(ctx context.Context) ([]profile.Skill, error)
}

type PostingRepository interface {
	Create(ctx context.Context, p posting.Posting) error
	Update(ctx context.Context, p posting.Posting) error
	GetByID(ctx context.Context, id uuid.UUID) (posting.Posting, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (posting.Posting, error)
	IncrementViews(ctx context.Context, id uuid.UUID) (posting.Posting, error)
	IncrementProposalCount(ctx context.Context, id uuid.UUID) error
	ListOpen(ctx context.Context, limit, offset int) ([]posting.Posting, error)
	ListByCompany(ctx context.Context, companyProfileID uuid.UUID) ([]posting.Posting, error)
}

type ProposalRepository interface {
	Create(ctx context.Context, p proposal.Proposal) error
	GetByID(ctx context.Context, id uuid.UUID) (proposal.Proposal, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (proposal.Proposal, error)
	HasPending(ctx context.Context, postingID, vaProfileID uuid.UUID) (bool, error)
	// UpdateStatusIfPending applies a decision only while the proposal is still pending.
	UpdateStatusIfPending(ctx context.Context, p proposal.Proposal) (bool, error)
	ListByPosting(ctx context.Context, postingID uuid.UUID) ([]proposal.Proposal, error)
	ListByVAProfile(ctx context.Context, vaProfileID uuid.UUID) ([]proposal.Proposal, error)
}

type ContractRepository interface {
	Create(ctx context.Context, c contract.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (contract.Contract, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (contract.Contract, error)
	GetByProposalID(ctx context.Context, proposalID uuid.UUID) (contract.Contract, error)
	Update(ctx context.Context, c contract.Contract) error
	// MarkRated stamps rated_at once; it reports false when the contract was already rated.
	MarkRated(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type JobRepository interface {
	Create(ctx context.Context, j contract.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (contract.Job, error)
	GetByContractID(ctx context.Context, contractID uuid.UUID) (contract.Job, error)
	UpdateStatus(ctx context.Context, j contract.Job) error
}

type MilestoneRepository interface {
	Create(ctx context.Context, m milestone.Milestone) error
	GetByID(ctx context.Context, id uuid.UUID) (milestone.Milestone, error)
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]milestone.Milestone, error)
	SumByContract(ctx context.Context, contractID uuid.UUID) (decimal.Decimal, error)
	// UpdateStatusFrom writes m only if the stored status still equals from.
	UpdateStatusFrom(ctx context.Context, m milestone.Milestone, from milestone.Status) (bool, error)
}

type TimesheetRepository interface {
	Create(ctx context.Context, t timesheet.Timesheet) error
	GetByID(ctx context.Context, id uuid.UUID) (timesheet.Timesheet, error)
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]timesheet.Timesheet, error)
	// ApproveIfPending writes the approval only while the timesheet is pending.
	ApproveIfPending(ctx context.Context, t timesheet.Timesheet) (bool, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p payment.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (payment.Payment, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (payment.Payment, error)
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]payment.Payment, error)
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to payment.Status) (bool, error)
	UpdateRefund(ctx context.Context, p payment.Payment) error
	AddToPayerTotal(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error
	TotalByPayer(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
}
