package profiles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"vahire/internal/domain"
	"vahire/internal/domain/account"
	"vahire/internal/domain/contract"
	"vahire/internal/domain/profile"
	"vahire/internal/notify"
	"vahire/internal/repository"
	"vahire/internal/usecase"
)

const skillsCacheTTL = time.Hour

// errStale aborts a rating transaction whose version check lost the race.
var errStale = errors.New("profile version changed")

type VAInput struct {
	Headline   string
	Bio        string
	HourlyRate decimal.Decimal
	Skills     []string
}

type CompanyInput struct {
	Name        string
	Website     string
	Description string
}

type Config struct {
	MaxRatingRetries int
	RatingLockTTL    time.Duration
}

type Service struct {
	store    repository.Store
	cache    usecase.ProjectionCache
	sink     notify.Sink
	recorder usecase.Recorder
	logger   *zap.Logger
	cfg      Config
	now      func() time.Time
}

func NewService(store repository.Store, cache usecase.ProjectionCache, sink notify.Sink, recorder usecase.Recorder, cfg Config, logger *zap.Logger) *Service {
	if cache == nil {
		cache = usecase.NopCache{}
	}
	if sink == nil {
		sink = notify.Nop{}
	}
	if recorder == nil {
		recorder = usecase.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRatingRetries <= 0 {
		cfg.MaxRatingRetries = 5
	}
	if cfg.RatingLockTTL <= 0 {
		cfg.RatingLockTTL = 5 * time.Second
	}
	return &Service{store: store, cache: cache, sink: sink, recorder: recorder, logger: logger, cfg: cfg, now: time.Now}
}

// UpsertVA creates the caller's VA profile on first use and marks the account complete; later calls edit it.
func (s *Service) UpsertVA(ctx context.Context, actor account.Actor, in VAInput) (profile.VAProfile, error) {
	if actor.Role != account.RoleVA {
		return profile.VAProfile{}, domain.Forbidden("only virtual assistant accounts have a VA profile")
	}
	if !in.HourlyRate.IsPositive() {
		return profile.VAProfile{}, domain.Validation(domain.CodeInvalidInput, "hourly_rate must be positive")
	}

	var out profile.VAProfile
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		now := s.now().UTC()
		existing, err := tx.Profiles().GetVAByAccountID(ctx, actor.AccountID)
		switch {
		case err == nil:
			existing.Headline = strings.TrimSpace(in.Headline)
			existing.Bio = strings.TrimSpace(in.Bio)
			existing.HourlyRate = in.HourlyRate
			existing.Skills = profile.NormalizeSkills(in.Skills)
			existing.UpdatedAt = now
			if err := tx.Profiles().UpdateVA(ctx, existing); err != nil {
				return err
			}
			out = existing
			return nil
		case errors.Is(err, domain.ErrNotFound):
		default:
			return err
		}

		out = profile.VAProfile{
			ID:         uuid.New(),
			AccountID:  actor.AccountID,
			Headline:   strings.TrimSpace(in.Headline),
			Bio:        strings.TrimSpace(in.Bio),
			HourlyRate: in.HourlyRate,
			Skills:     profile.NormalizeSkills(in.Skills),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Profiles().CreateVA(ctx, out); err != nil {
			return err
		}
		return tx.Accounts().MarkProfileComplete(ctx, actor.AccountID)
	})
	if err != nil {
		return profile.VAProfile{}, err
	}
	return out, nil
}

func (s *Service) UpsertCompany(ctx context.Context, actor account.Actor, in CompanyInput) (profile.CompanyProfile, error) {
	if actor.Role != account.RoleCompany {
		return profile.CompanyProfile{}, domain.Forbidden("only company accounts have a company profile")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return profile.CompanyProfile{}, domain.Validation(domain.CodeInvalidInput, "name is required")
	}

	var out profile.CompanyProfile
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		now := s.now().UTC()
		existing, err := tx.Profiles().GetCompanyByAccountID(ctx, actor.AccountID)
		switch {
		case err == nil:
			existing.Name = name
			existing.Website = strings.TrimSpace(in.Website)
			existing.Description = strings.TrimSpace(in.Description)
			existing.UpdatedAt = now
			if err := tx.Profiles().UpdateCompany(ctx, existing); err != nil {
				return err
			}
			out = existing
			return nil
		case errors.Is(err, domain.ErrNotFound):
		default:
			return err
		}

		out = profile.CompanyProfile{
			ID:          uuid.New(),
			AccountID:   actor.AccountID,
			Name:        name,
			Website:     strings.TrimSpace(in.Website),
			Description: strings.TrimSpace(in.Description),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Profiles().CreateCompany(ctx, out); err != nil {
			return err
		}
		return tx.Accounts().MarkProfileComplete(ctx, actor.AccountID)
	})
	if err != nil {
		return profile.CompanyProfile{}, err
	}
	return out, nil
}

// ViewVA returns the public VA profile, counting the view in the same statement that reads it.
func (s *Service) ViewVA(ctx context.Context, id uuid.UUID) (profile.VAProfile, error) {
	return s.store.Profiles().IncrementVAViews(ctx, id)
}

func (s *Service) MyVA(ctx context.Context, actor account.Actor) (profile.VAProfile, error) {
	return usecase.VAOf(ctx, s.store, actor)
}

func (s *Service) MyCompany(ctx context.Context, actor account.Actor) (profile.CompanyProfile, error) {
	return usecase.CompanyOf(ctx, s.store, actor)
}

func (s *Service) GetCompany(ctx context.Context, id uuid.UUID) (profile.CompanyProfile, error) {
	return s.store.Profiles().GetCompanyByID(ctx, id)
}

func (s *Service) ListSkills(ctx context.Context) ([]profile.Skill, error) {
	var cached []profile.Skill
	if ok, err := s.cache.GetJSON(ctx, usecase.SkillsCatalogKey, &cached); err == nil && ok {
		return cached, nil
	}

	skills, err := s.store.Profiles().ListSkills(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, usecase.SkillsCatalogKey, skills, skillsCacheTTL); err != nil {
		s.logger.Warn("cache skills catalog", zap.Error(err))
	}
	return skills, nil
}

// RateVA records the company's rating of the VA on a completed contract. Each contract is rated at most once.
// Concurrent ratings of one VA are serialized by a version check on the profile row and retried; the redis
// lock only reduces how often that check fails.
func (s *Service) RateVA(ctx context.Context, actor account.Actor, contractID uuid.UUID, rating float64) (profile.VAProfile, error) {
	if !profile.ValidRating(rating) {
		return profile.VAProfile{}, domain.Validation(domain.CodeInvalidInput, "rating must be between %.0f and %.0f", profile.MinRating, profile.MaxRating)
	}
	company, err := usecase.CompanyOf(ctx, s.store, actor)
	if err != nil {
		return profile.VAProfile{}, err
	}
	c, err := s.store.Contracts().GetByID(ctx, contractID)
	if err != nil {
		return profile.VAProfile{}, err
	}
	if c.CompanyProfileID != company.ID {
		return profile.VAProfile{}, domain.Forbidden("contract belongs to another company")
	}
	if c.Status != contract.StatusCompleted {
		return profile.VAProfile{}, domain.Conflict(domain.CodeInvalidTransition, "only completed contracts can be rated, contract is %s", c.Status)
	}
	if c.RatedAt != nil {
		return profile.VAProfile{}, domain.Conflict(domain.CodeAlreadyRated, "contract %s is already rated", c.ID)
	}

	release := s.lockRating(ctx, c.VAProfileID)
	defer release()

	var out profile.VAProfile
	for attempt := 0; attempt < s.cfg.MaxRatingRetries; attempt++ {
		err = s.store.WithinTx(ctx, func(tx repository.Store) error {
			marked, err := tx.Contracts().MarkRated(ctx, c.ID, s.now().UTC())
			if err != nil {
				return err
			}
			if !marked {
				return domain.Conflict(domain.CodeAlreadyRated, "contract %s is already rated", c.ID)
			}

			va, err := tx.Profiles().GetVAByID(ctx, c.VAProfileID)
			if err != nil {
				return err
			}
			next := va.ApplyRating(rating)
			ok, err := tx.Profiles().UpdateRatingIfVersion(ctx, va.ID, va.Version, next.AverageRating, next.TotalReviews)
			if err != nil {
				return err
			}
			if !ok {
				return errStale
			}
			next.Version = va.Version + 1
			out = next
			return nil
		})
		if !errors.Is(err, errStale) {
			break
		}
		s.recorder.RatingRetry()
		s.logger.Debug("rating version conflict, retrying",
			zap.String("va_profile_id", c.VAProfileID.String()),
			zap.Int("attempt", attempt+1),
		)
	}
	if errors.Is(err, errStale) {
		return profile.VAProfile{}, domain.Conflict(domain.CodeRatingContention, "could not apply rating after %d attempts", s.cfg.MaxRatingRetries)
	}
	if err != nil {
		return profile.VAProfile{}, err
	}

	s.sink.Notify(ctx, out.AccountID, notify.NewEvent(notify.EventVARated, map[string]any{
		"contract_id":    c.ID.String(),
		"rating":         rating,
		"average_rating": out.AverageRating,
		"total_reviews":  out.TotalReviews,
	}))
	return out, nil
}

// lockRating takes the per-profile redis lock when it can. Failing to get it is not an error.
func (s *Service) lockRating(ctx context.Context, vaProfileID uuid.UUID) func() {
	if !s.cache.Available() {
		return func() {}
	}
	key := usecase.RatingLockKey(vaProfileID)
	ok, err := s.cache.SetIfNotExists(ctx, key, uuid.NewString(), s.cfg.RatingLockTTL)
	if err != nil {
		s.logger.Warn("rating lock", zap.String("key", key), zap.Error(err))
		return func() {}
	}
	if !ok {
		return func() {}
	}
	return func() {
		if err := s.cache.Delete(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("release rating lock", zap.String("key", key), zap.Error(err))
		}
	}
}
