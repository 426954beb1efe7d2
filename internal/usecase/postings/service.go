package postings

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
	"vahire/internal/repository"
	"vahire/internal/usecase"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type CreateInput struct {
	Title       string
	Description string
	Budget      decimal.Decimal
	RateMin     decimal.Decimal
	RateMax     decimal.Decimal
}

// UpdateInput carries only the fields being changed.
type UpdateInput struct {
	Title       *string
	Description *string
	Budget      *decimal.Decimal
	RateMin     *decimal.Decimal
	RateMax     *decimal.Decimal
	Status      *string
}

type Page struct {
	Items  []posting.Posting
	Limit  int
	Offset int
}

type Service struct {
	store  repository.Store
	cache  usecase.ProjectionCache
	rec    usecase.Recorder
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store repository.Store, cache usecase.ProjectionCache, rec usecase.Recorder, logger *zap.Logger) *Service {
	if cache == nil {
		cache = usecase.NopCache{}
	}
	if rec == nil {
		rec = usecase.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cache: cache, rec: rec, logger: logger, now: time.Now}
}

func (s *Service) Create(ctx context.Context, actor account.Actor, in CreateInput) (posting.Posting, error) {
	company, err := usecase.CompanyOf(ctx, s.store, actor)
	if err != nil {
		return posting.Posting{}, err
	}

	now := s.now().UTC()
	p := posting.Posting{
		ID:               uuid.New(),
		CompanyProfileID: company.ID,
		Title:            strings.TrimSpace(in.Title),
		Description:      strings.TrimSpace(in.Description),
		Budget:           in.Budget,
		RateMin:          in.RateMin,
		RateMax:          in.RateMax,
		Status:           posting.StatusOpen,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := p.Validate(); err != nil {
		return posting.Posting{}, err
	}
	if err := s.store.Postings().Create(ctx, p); err != nil {
		return posting.Posting{}, err
	}

	s.invalidate(ctx)
	s.rec.Transition("posting", string(p.Status))
	return p, nil
}

func (s *Service) Update(ctx context.Context, actor account.Actor, id uuid.UUID, in UpdateInput) (posting.Posting, error) {
	var out posting.Posting
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Postings().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, tx, actor, p); err != nil {
			return err
		}

		if in.Title != nil {
			p.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			p.Description = strings.TrimSpace(*in.Description)
		}
		if in.Budget != nil {
			p.Budget = *in.Budget
		}
		if in.RateMin != nil {
			p.RateMin = *in.RateMin
		}
		if in.RateMax != nil {
			p.RateMax = *in.RateMax
		}
		if in.Status != nil {
			st, err := posting.ParseStatus(*in.Status)
			if err != nil {
				return err
			}
			p.Status = st
		}
		if err := p.Validate(); err != nil {
			return err
		}
		p.UpdatedAt = s.now().UTC()
		if err := tx.Postings().Update(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return posting.Posting{}, err
	}

	s.invalidate(ctx)
	if in.Status != nil {
		s.rec.Transition("posting", string(out.Status))
	}
	return out, nil
}

// View returns the posting and counts the view atomically with the read.
func (s *Service) View(ctx context.Context, id uuid.UUID) (posting.Posting, error) {
	return s.store.Postings().IncrementViews(ctx, id)
}

func (s *Service) ListOpen(ctx context.Context, limit, offset int) (Page, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	key := usecase.OpenPostingsCacheKey(limit, offset)
	var cached Page
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	items, err := s.store.Postings().ListOpen(ctx, limit, offset)
	if err != nil {
		return Page{}, err
	}
	page := Page{Items: items, Limit: limit, Offset: offset}
	if err := s.cache.SetJSON(ctx, key, page, 0); err != nil {
		s.logger.Warn("cache open postings", zap.String("key", key), zap.Error(err))
	}
	return page, nil
}

func (s *Service) ListMine(ctx context.Context, actor account.Actor) ([]posting.Posting, error) {
	company, err := usecase.CompanyOf(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}
	return s.store.Postings().ListByCompany(ctx, company.ID)
}

func (s *Service) authorize(ctx context.Context, store repository.Store, actor account.Actor, p posting.Posting) error {
	if actor.IsAdmin() {
		return nil
	}
	company, err := usecase.CompanyOf(ctx, store, actor)
	if err != nil {
		return err
	}
	if company.ID != p.CompanyProfileID {
		return domain.Forbidden("posting belongs to another company")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, usecase.OpenPostingsPattern); err != nil {
		s.logger.Warn("invalidate open postings", zap.Error(err))
	}
}
