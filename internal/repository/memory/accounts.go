package memory

import (
	"context"
	"time"

	"vahire/internal/domain"
	"vahire/internal/domain/account"
	"vahire/internal/domain/profile"

	"github.com/google/uuid"
)

type accountRepo struct{ s *Store }

func (r accountRepo) Create(_ context.Context, a account.Account) error {
	defer r.s.lock()()
	d := r.s.data()
	for _, existing := range d.accounts {
		if existing.Email == a.Email {
			return conflict(domain.CodeEmailAlreadyRegistered, "account", "accounts_email_key")
		}
	}
	d.accounts[a.ID] = a
	return nil
}

func (r accountRepo) GetByID(_ context.Context, id uuid.UUID) (account.Account, error) {
	defer r.s.lock()()
	a, ok := r.s.data().accounts[id]
	if !ok {
		return account.Account{}, domain.NotFound(domain.CodeAccountNotFound, "account not found")
	}
	return a, nil
}

func (r accountRepo) GetByEmail(_ context.Context, email string) (account.Account, error) {
	defer r.s.lock()()
	for _, a := range r.s.data().accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return account.Account{}, domain.NotFound(domain.CodeAccountNotFound, "account not found")
}

func (r accountRepo) UpdateRole(_ context.Context, id uuid.UUID, role account.Role) error {
	return r.update(id, func(a *account.Account) { a.Role = role })
}

func (r accountRepo) MarkProfileComplete(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(a *account.Account) { a.ProfileComplete = true })
}

func (r accountRepo) MarkEmailVerified(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(a *account.Account) { a.EmailVerified = true })
}

func (r accountRepo) update(id uuid.UUID, mutate func(*account.Account)) error {
	defer r.s.lock()()
	d := r.s.data()
	a, ok := d.accounts[id]
	if !ok {
		return domain.NotFound(domain.CodeAccountNotFound, "account not found")
	}
	mutate(&a)
	a.UpdatedAt = time.Now().UTC()
	d.accounts[id] = a
	return nil
}

type profileRepo struct{ s *Store }

func profileNotFound(entity string) error {
	return domain.NotFound(domain.CodeProfileNotFound, "%s not found", entity)
}

func cloneVA(p profile.VAProfile) profile.VAProfile {
	p.Skills = cloneStrings(p.Skills)
	return p
}

func (r profileRepo) CreateVA(_ context.Context, p profile.VAProfile) error {
	defer r.s.lock()()
	d := r.s.data()
	for _, existing := range d.vas {
		if existing.AccountID == p.AccountID {
			return conflict(domain.CodeProfileAlreadyExists, "va profile", "va_profiles_account_id_key")
		}
	}
	d.vas[p.ID] = cloneVA(p)
	return nil
}

func (r profileRepo) UpdateVA(_ context.Context, p profile.VAProfile) error {
	defer r.s.lock()()
	d := r.s.data()
	cur, ok := d.vas[p.ID]
	if !ok {
		return profileNotFound("va profile")
	}
	cur.Headline = p.Headline
	cur.Bio = p.Bio
	cur.HourlyRate = p.HourlyRate
	cur.Skills = cloneStrings(p.Skills)
	cur.UpdatedAt = p.UpdatedAt
	d.vas[p.ID] = cur
	return nil
}

func (r profileRepo) GetVAByID(_ context.Context, id uuid.UUID) (profile.VAProfile, error) {
	defer r.s.lock()()
	p, ok := r.s.data().vas[id]
	if !ok {
		return profile.VAProfile{}, profileNotFound("va profile")
	}
	return cloneVA(p), nil
}

func (r profileRepo) GetVAByAccountID(_ context.Context, accountID uuid.UUID) (profile.VAProfile, error) {
	defer r.s.lock()()
	for _, p := range r.s.data().vas {
		if p.AccountID == accountID {
			return cloneVA(p), nil
		}
	}
	return profile.VAProfile{}, profileNotFound("va profile")
}

func (r profileRepo) IncrementVAViews(_ context.Context, id uuid.UUID) (profile.VAProfile, error) {
	defer r.s.lock()()
	d := r.s.data()
	p, ok := d.vas[id]
	if !ok {
		return profile.VAProfile{}, profileNotFound("va profile")
	}
	p.ProfileViews++
	d.vas[id] = p
	return cloneVA(p), nil
}

func (r profileRepo) UpdateRatingIfVersion(_ context.Context, id uuid.UUID, expectedVersion int64, avg float64, total int) (bool, error) {
	defer r.s.lock()()
	d := r.s.data()
	p, ok := d.vas[id]
	if !ok || p.Version != expectedVersion {
		return false, nil
	}
	p.AverageRating = avg
	p.TotalReviews = total
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	d.vas[id] = p
	return true, nil
}

func (r profileRepo) CreateCompany(_ context.Context, p profile.CompanyProfile) error {
	defer r.s.lock()()
	d := r.s.data()
	for _, existing := range d.companies {
		if existing.AccountID == p.AccountID {
			return conflict(domain.CodeProfileAlreadyExists, "company profile", "company_profiles_account_id_key")
		}
	}
	d.companies[p.ID] = p
	return nil
}

func (r profileRepo) UpdateCompany(_ context.Context, p profile.CompanyProfile) error {
	defer r.s.lock()()
	d := r.s.data()
	cur, ok := d.companies[p.ID]
	if !ok {
		return profileNotFound("company profile")
	}
	cur.Name = p.Name
	cur.Website = p.Website
	cur.Description = p.Description
	cur.UpdatedAt = p.UpdatedAt
	d.companies[p.ID] = cur
	return nil
}

func (r profileRepo) GetCompanyByID(_ context.Context, id uuid.UUID) (profile.CompanyProfile, error) {
	defer r.s.lock()()
	p, ok := r.s.data().companies[id]
	if !ok {
		return profile.CompanyProfile{}, profileNotFound("company profile")
	}
	return p, nil
}

func (r profileRepo) GetCompanyByAccountID(_ context.Context, accountID uuid.UUID) (profile.CompanyProfile, error) {
	defer r.s.lock()()
	for _, p := range r.s.data().companies {
		if p.AccountID == accountID {
			return p, nil
		}
	}
	return profile.CompanyProfile{}, profileNotFound("company profile")
}

func (r profileRepo) ListSkills(context.Context) ([]profile.Skill, error) {
	defer r.s.lock()()
	return append([]profile.Skill{}, r.s.data().skills...), nil
}
