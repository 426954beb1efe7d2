package proposals

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"vahire/internal/domain"
	"vahire/internal/domain/account"
	"vahire/internal/domain/posting"
	"vahire/internal/domain/proposal"
	"vahire/internal/notify"
	"vahire/internal/repository"
	"vahire/internal/usecase"
	"vahire/internal/usecase/engagement"
)

type SubmitInput struct {
	BidType           string
	BidAmount         decimal.Decimal
	CoverLetter       string
	EstimatedDuration string
}

type Decision struct {
	Proposal proposal.Proposal
	// Formed is set when the decision accepted the proposal.
	Formed *engagement.Formed
}

type Service struct {
	store      repository.Store
	engagement *engagement.Service
	cache      usecase.ProjectionCache
	sink       notify.Sink
	rec        usecase.Recorder
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(store repository.Store, eng *engagement.Service, cache usecase.ProjectionCache, sink notify.Sink, rec usecase.Recorder, logger *zap.Logger) *Service {
	if cache == nil {
		cache = usecase.NopCache{}
	}
	if sink == nil {
		sink = notify.Nop{}
	}
	if rec == nil {
		rec = usecase.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, engagement: eng, cache: cache, sink: sink, rec: rec, logger: logger, now: time.Now}
}

// Submit records a VA's bid. The proposal row and the posting's proposal counter are written in one
// transaction, and a VA may hold only one pending proposal per posting.
func (s *Service) Submit(ctx context.Context, actor account.Actor, postingID uuid.UUID, in SubmitInput) (proposal.Proposal, error) {
	bidType, err := proposal.ParseBidType(in.BidType)
	if err != nil {
		return proposal.Proposal{}, err
	}
	if !in.BidAmount.IsPositive() {
		return proposal.Proposal{}, domain.Validation(domain.CodeInvalidInput, "bid_amount must be positive")
	}
	va, err := usecase.VAOf(ctx, s.store, actor)
	if err != nil {
		return proposal.Proposal{}, err
	}

	var (
		out  proposal.Proposal
		post posting.Posting
	)
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		post, err = tx.Postings().GetByIDForUpdate(ctx, postingID)
		if err != nil {
			return err
		}
		if post.Status != posting.StatusOpen {
			return domain.Conflict(domain.CodePostingNotOpen, "posting is %s", post.Status)
		}
		if bidType == proposal.BidHourly && !post.Budget.IsPositive() {
			return domain.Validation(domain.CodeInvalidInput, "posting has no budget to cap an hourly contract")
		}
		pending, err := tx.Proposals().HasPending(ctx, post.ID, va.ID)
		if err != nil {
			return err
		}
		if pending {
			return domain.Conflict(domain.CodeDuplicatePendingProposal, "a pending proposal for this posting already exists")
		}

		now := s.now().UTC()
		out = proposal.Proposal{
			ID:                uuid.New(),
			JobPostingID:      post.ID,
			VAProfileID:       va.ID,
			BidType:           bidType,
			BidAmount:         in.BidAmount,
			CoverLetter:       strings.TrimSpace(in.CoverLetter),
			EstimatedDuration: strings.TrimSpace(in.EstimatedDuration),
			Status:            proposal.StatusPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := tx.Proposals().Create(ctx, out); err != nil {
			return err
		}
		return tx.Postings().IncrementProposalCount(ctx, post.ID)
	})
	if err != nil {
		return proposal.Proposal{}, err
	}

	s.invalidatePostings(ctx)
	s.rec.Transition("proposal", string(out.Status))
	s.notifyCompany(ctx, post.CompanyProfileID, notify.NewEvent(notify.EventProposalSubmitted, map[string]any{
		"proposal_id":    out.ID.String(),
		"job_posting_id": post.ID.String(),
		"bid_type":       string(out.BidType),
		"bid_amount":     out.BidAmount.String(),
	}))
	return out, nil
}

func (s *Service) Withdraw(ctx context.Context, actor account.Actor, id uuid.UUID) (proposal.Proposal, error) {
	va, err := usecase.VAOf(ctx, s.store, actor)
	if err != nil {
		return proposal.Proposal{}, err
	}

	var (
		out  proposal.Proposal
		post posting.Posting
	)
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Proposals().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.VAProfileID != va.ID {
			return domain.Forbidden("proposal belongs to another virtual assistant")
		}
		if out, err = p.Transition(proposal.StatusWithdrawn, s.now()); err != nil {
			return err
		}
		if err := s.applyDecision(ctx, tx, out); err != nil {
			return err
		}
		post, err = tx.Postings().GetByID(ctx, p.JobPostingID)
		return err
	})
	if err != nil {
		return proposal.Proposal{}, err
	}

	s.rec.Transition("proposal", string(out.Status))
	s.notifyCompany(ctx, post.CompanyProfileID, notify.NewEvent(notify.EventProposalWithdrawn, map[string]any{
		"proposal_id":    out.ID.String(),
		"job_posting_id": post.ID.String(),
	}))
	return out, nil
}

// Decide accepts or rejects a pending proposal. Accepting forms the contract and job in the same transaction,
// so an accepted proposal is never left without them. Terms are only accepted together with an acceptance.
// Other proposals on the posting are left as they are.
func (s *Service) Decide(ctx context.Context, actor account.Actor, id uuid.UUID, rawOutcome string, terms engagement.Terms, respondedAt *time.Time) (Decision, error) {
	outcome, err := proposal.ParseOutcome(rawOutcome)
	if err != nil {
		return Decision{}, err
	}
	if outcome != proposal.OutcomeAccept && !terms.IsZero() {
		return Decision{}, domain.Validation(domain.CodeInvalidInput, "contract terms can only accompany an acceptance")
	}
	if err := s.engagement.ValidateTerms(ctx, terms); err != nil {
		return Decision{}, err
	}
	at := s.now()
	if respondedAt != nil {
		at = *respondedAt
	}

	var out Decision
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Proposals().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		post, err := tx.Postings().GetByID(ctx, p.JobPostingID)
		if err != nil {
			return err
		}
		if err := ownsPosting(ctx, tx, actor, post); err != nil {
			return err
		}

		decided, err := p.Transition(outcome.Status(), at)
		if err != nil {
			return err
		}
		if err := s.applyDecision(ctx, tx, decided); err != nil {
			return err
		}
		out.Proposal = decided

		if outcome != proposal.OutcomeAccept {
			return nil
		}
		formed, err := engagement.Form(ctx, tx, decided, s.engagement.Currency(), terms, s.now())
		if err != nil {
			return err
		}
		out.Formed = &formed
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	s.rec.Transition("proposal", string(out.Proposal.Status))
	evType := notify.EventProposalRejected
	if outcome == proposal.OutcomeAccept {
		evType = notify.EventProposalAccepted
	}
	s.notifyVA(ctx, out.Proposal.VAProfileID, notify.NewEvent(evType, map[string]any{
		"proposal_id":    out.Proposal.ID.String(),
		"job_posting_id": out.Proposal.JobPostingID.String(),
	}))
	if out.Formed != nil && out.Formed.Created {
		s.engagement.Announce(ctx, *out.Formed)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, actor account.Actor, id uuid.UUID) (proposal.Proposal, error) {
	p, err := s.store.Proposals().GetByID(ctx, id)
	if err != nil {
		return proposal.Proposal{}, err
	}
	if actor.Role == account.RoleVA {
		va, err := usecase.VAOf(ctx, s.store, actor)
		if err != nil {
			return proposal.Proposal{}, err
		}
		if va.ID != p.VAProfileID {
			return proposal.Proposal{}, domain.Forbidden("proposal belongs to another virtual assistant")
		}
		return p, nil
	}
	post, err := s.store.Postings().GetByID(ctx, p.JobPostingID)
	if err != nil {
		return proposal.Proposal{}, err
	}
	if err := ownsPosting(ctx, s.store, actor, post); err != nil {
		return proposal.Proposal{}, err
	}
	return p, nil
}

func (s *Service) ListForPosting(ctx context.Context, actor account.Actor, postingID uuid.UUID) ([]proposal.Proposal, error) {
	post, err := s.store.Postings().GetByID(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if err := ownsPosting(ctx, s.store, actor, post); err != nil {
		return nil, err
	}
	return s.store.Proposals().ListByPosting(ctx, postingID)
}

func (s *Service) ListMine(ctx context.Context, actor account.Actor) ([]proposal.Proposal, error) {
	va, err := usecase.VAOf(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}
	return s.store.Proposals().ListByVAProfile(ctx, va.ID)
}

// applyDecision writes a transition out of pending. Losing the race to a concurrent decision is a conflict.
func (s *Service) applyDecision(ctx context.Context, tx repository.Store, p proposal.Proposal) error {
	ok, err := tx.Proposals().UpdateStatusIfPending(ctx, p)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Conflict(domain.CodeInvalidTransition, "proposal %s is no longer pending", p.ID)
	}
	return nil
}

func ownsPosting(ctx context.Context, store repository.Store, actor account.Actor, post posting.Posting) error {
	if actor.IsAdmin() {
		return nil
	}
	company, err := usecase.CompanyOf(ctx, store, actor)
	if err != nil {
		return err
	}
	if company.ID != post.CompanyProfileID {
		return domain.Forbidden("posting belongs to another company")
	}
	return nil
}

func (s *Service) invalidatePostings(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, usecase.OpenPostingsPattern); err != nil {
		s.logger.Warn("invalidate open postings", zap.Error(err))
	}
}

func (s *Service) notifyCompany(ctx context.Context, companyProfileID uuid.UUID, ev notify.Event) {
	c, err := s.store.Profiles().GetCompanyByID(ctx, companyProfileID)
	if err != nil {
		s.logger.Warn("resolve notification recipient", zap.String("event", ev.Type), zap.Error(err))
		return
	}
	s.sink.Notify(ctx, c.AccountID, ev)
}

func (s *Service) notifyVA(ctx context.Context, vaProfileID uuid.UUID, ev notify.Event) {
	va, err := s.store.Profiles().GetVAByID(ctx, vaProfileID)
	if err != nil {
		s.logger.Warn("resolve notification recipient", zap.String("event", ev.Type), zap.Error(err))
		return
	}
	s.sink.Notify(ctx, va.AccountID, ev)
}
