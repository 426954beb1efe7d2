package profiles

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
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
	"vahire/internal/repository/memory"
	"vahire/internal/usecase/usecasetest"
)

func newService(store repository.Store, cache *usecasetest.MapCache, rec *usecasetest.Recorder, sink notify.Sink) *Service {
	return NewService(store, cache, sink, rec, Config{MaxRatingRetries: 3, RatingLockTTL: time.Second}, zap.NewNop())
}

func completedEngagement(t *testing.T, store repository.Store) usecasetest.Engagement {
	t.Helper()
	return complete(t, store, usecasetest.NewEngagement(t, store, 500))
}

func complete(t *testing.T, store repository.Store, e usecasetest.Engagement) usecasetest.Engagement {
	t.Helper()
	done, err := e.Contract.Transition(contract.StatusCompleted, time.Now())
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := store.Contracts().Update(context.Background(), done); err != nil {
		t.Fatalf("update contract: %v", err)
	}
	e.Contract = done
	return e
}

func TestUpsertVA_CreatesThenUpdates(t *testing.T) {
	store := memory.New(nil)
	svc := newService(store, usecasetest.NewMapCache(), &usecasetest.Recorder{}, notify.Nop{})
	ctx := context.Background()

	acc := account.Account{ID: uuid.New(), Email: "va@example.com", Role: account.RoleVA}
	if err := store.Accounts().Create(ctx, acc); err != nil {
		t.Fatalf("create account: %v", err)
	}
	actor := account.Actor{AccountID: acc.ID, Role: account.RoleVA}

	first, err := svc.UpsertVA(ctx, actor, VAInput{Headline: "EA", HourlyRate: decimal.NewFromInt(18), Skills: []string{"Data Entry", "data entry"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(first.Skills) != 1 || first.Skills[0] != "data entry" {
		t.Fatalf("skills = %v", first.Skills)
	}
	got, err := store.Accounts().GetByID(ctx, acc.ID)
	if err != nil || !got.ProfileComplete {
		t.Fatalf("profile complete not set: %+v %v", got, err)
	}

	second, err := svc.UpsertVA(ctx, actor, VAInput{Headline: "Senior EA", HourlyRate: decimal.NewFromInt(25)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if second.ID != first.ID || second.Headline != "Senior EA" {
		t.Fatalf("update created a new profile: %+v", second)
	}

	if _, err := svc.UpsertVA(ctx, actor, VAInput{HourlyRate: decimal.Zero}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	company := account.Actor{AccountID: uuid.New(), Role: account.RoleCompany}
	if _, err := svc.UpsertVA(ctx, company, VAInput{HourlyRate: decimal.NewFromInt(1)}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpsertCompany(t *testing.T) {
	store := memory.New(nil)
	svc := newService(store, usecasetest.NewMapCache(), &usecasetest.Recorder{}, notify.Nop{})
	ctx := context.Background()

	acc := account.Account{ID: uuid.New(), Email: "c@example.com", Role: account.RoleCompany}
	if err := store.Accounts().Create(ctx, acc); err != nil {
		t.Fatalf("create account: %v", err)
	}
	actor := account.Actor{AccountID: acc.ID, Role: account.RoleCompany}

	if _, err := svc.UpsertCompany(ctx, actor, CompanyInput{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	c, err := svc.UpsertCompany(ctx, actor, CompanyInput{Name: " Acme "})
	if err != nil || c.Name != "Acme" {
		t.Fatalf("create: %+v %v", c, err)
	}
	mine, err := svc.MyCompany(ctx, actor)
	if err != nil || mine.ID != c.ID {
		t.Fatalf("my company: %+v %v", mine, err)
	}
}

func TestViewVA_CountsEveryView(t *testing.T) {
	store := memory.New(nil)
	svc := newService(store, usecasetest.NewMapCache(), &usecasetest.Recorder{}, notify.Nop{})
	va := usecasetest.NewVA(t, store)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ViewVA(context.Background(), va.Profile.ID); err != nil {
				t.Errorf("view: %v", err)
			}
		}()
	}
	wg.Wait()

	p, err := svc.ViewVA(context.Background(), va.Profile.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if p.ProfileViews != 11 {
		t.Fatalf("views = %d", p.ProfileViews)
	}
	if _, err := svc.ViewVA(context.Background(), uuid.New()); domain.CodeOf(err) != domain.CodeProfileNotFound {
		t.Fatalf("expected ProfileNotFound, got %v", err)
	}
}

func TestRateVA_OncePerCompletedContract(t *testing.T) {
	store := memory.New(nil)
	cache := usecasetest.NewMapCache()
	sink := &usecasetest.Sink{}
	svc := newService(store, cache, &usecasetest.Recorder{}, sink)
	ctx := context.Background()

	active := usecasetest.NewEngagement(t, store, 300)
	if _, err := svc.RateVA(ctx, active.Company.Actor, active.Contract.ID, 4); domain.CodeOf(err) != domain.CodeInvalidTransition {
		t.Fatalf("active contract must not be rated, got %v", err)
	}

	e := completedEngagement(t, store)
	if _, err := svc.RateVA(ctx, e.Company.Actor, e.Contract.ID, 6); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.RateVA(ctx, active.Company.Actor, e.Contract.ID, 4); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("other company must be forbidden, got %v", err)
	}

	p, err := svc.RateVA(ctx, e.Company.Actor, e.Contract.ID, 4)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if p.AverageRating != 4 || p.TotalReviews != 1 {
		t.Fatalf("profile = %+v", p)
	}
	if _, err := svc.RateVA(ctx, e.Company.Actor, e.Contract.ID, 5); domain.CodeOf(err) != domain.CodeAlreadyRated {
		t.Fatalf("expected AlreadyRated, got %v", err)
	}
	if cache.Has("profiles:va:rating:lock:" + e.VA.Profile.ID.String()) {
		t.Fatalf("rating lock not released")
	}
	if !sink.Received(e.VA.Actor.AccountID, notify.EventVARated) {
		t.Fatalf("va not notified")
	}
}

func TestRateVA_ConcurrentRatingsKeepExactMean(t *testing.T) {
	store := memory.New(nil)
	svc := newService(store, usecasetest.NewMapCache(), &usecasetest.Recorder{}, notify.Nop{})
	ctx := context.Background()

	va := usecasetest.NewVA(t, store)
	ratings := []float64{5, 4, 3, 5, 1, 2, 4, 5}
	type job struct {
		actor account.Actor
		id    uuid.UUID
	}
	jobs := make([]job, 0, len(ratings))
	for range ratings {
		e := complete(t, store, usecasetest.Engage(t, store, va, 200))
		jobs = append(jobs, job{actor: e.Company.Actor, id: e.Contract.ID})
	}

	var wg sync.WaitGroup
	for i, r := range ratings {
		wg.Add(1)
		go func(j job, r float64) {
			defer wg.Done()
			if _, err := svc.RateVA(ctx, j.actor, j.id, r); err != nil {
				t.Errorf("rate: %v", err)
			}
		}(jobs[i], r)
	}
	wg.Wait()

	got, err := store.Profiles().GetVAByID(ctx, va.Profile.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	sum := 0.0
	for _, r := range ratings {
		sum += r
	}
	if got.TotalReviews != len(ratings) || math.Abs(got.AverageRating-sum/float64(len(ratings))) > 1e-9 {
		t.Fatalf("average=%v reviews=%d", got.AverageRating, got.TotalReviews)
	}
}

// staleStore fails the first n version checks as if another writer had won.
type staleStore struct {
	repository.Store
	mu sync.Mutex
	n  int
}

func (s *staleStore) Profiles() repository.ProfileRepository {
	return staleProfiles{ProfileRepository: s.Store.Profiles(), s: s}
}

func (s *staleStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(&staleStore{Store: tx, n: s.take()})
	})
}

func (s *staleStore) take() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.n > 0 {
		s.n--
		return 1
	}
	return 0
}

type staleProfiles struct {
	repository.ProfileRepository
	s *staleStore
}

func (p staleProfiles) UpdateRatingIfVersion(ctx context.Context, id uuid.UUID, v int64, avg float64, total int) (bool, error) {
	if p.s.n > 0 {
		return false, nil
	}
	return p.ProfileRepository.UpdateRatingIfVersion(ctx, id, v, avg, total)
}

func TestRateVA_RetriesStaleVersion(t *testing.T) {
	base := memory.New(nil)
	e := completedEngagement(t, base)
	rec := &usecasetest.Recorder{}
	svc := newService(&staleStore{Store: base, n: 2}, usecasetest.NewMapCache(), rec, notify.Nop{})

	p, err := svc.RateVA(context.Background(), e.Company.Actor, e.Contract.ID, 3)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if p.TotalReviews != 1 || rec.RatingRetries != 2 {
		t.Fatalf("reviews=%d retries=%d", p.TotalReviews, rec.RatingRetries)
	}

	c, err := base.Contracts().GetByID(context.Background(), e.Contract.ID)
	if err != nil || c.RatedAt == nil {
		t.Fatalf("rated_at not committed: %+v %v", c.RatedAt, err)
	}
}

func TestRateVA_GivesUpAfterMaxRetries(t *testing.T) {
	base := memory.New(nil)
	e := completedEngagement(t, base)
	cache := usecasetest.NewMapCache()
	cache.Down = true
	svc := newService(&staleStore{Store: base, n: 10}, cache, &usecasetest.Recorder{}, notify.Nop{})

	_, err := svc.RateVA(context.Background(), e.Company.Actor, e.Contract.ID, 3)
	if domain.CodeOf(err) != domain.CodeRatingContention {
		t.Fatalf("expected RatingContention, got %v", err)
	}
	c, err := base.Contracts().GetByID(context.Background(), e.Contract.ID)
	if err != nil || c.RatedAt != nil {
		t.Fatalf("failed rating must not mark contract: %+v %v", c.RatedAt, err)
	}
}

func TestListSkills_Cached(t *testing.T) {
	store := memory.New(profile.DefaultSkillCatalog)
	cache := usecasetest.NewMapCache()
	svc := newService(store, cache, &usecasetest.Recorder{}, notify.Nop{})

	for i := 0; i < 2; i++ {
		skills, err := svc.ListSkills(context.Background())
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(skills) != len(profile.DefaultSkillCatalog) {
			t.Fatalf("skills = %d", len(skills))
		}
	}
	if cache.Sets != 1 || cache.Hits != 1 {
		t.Fatalf("sets=%d hits=%d", cache.Sets, cache.Hits)
	}
}
