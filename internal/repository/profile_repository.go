package repository

import (
	"context"
	"time"

	"vahire/internal/database"
	"vahire/internal/domain"
	"vahire/internal/domain/profile"

	"github.com/google/uuid"
)

type PostgresProfileRepository struct {
	db database.Querier
}

func NewPostgresProfileRepository(db database.Querier) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

const vaColumns = `id, account_id, headline, bio, hourly_rate, skills, average_rating, total_reviews, profile_views, version, created_at, updated_at`

const companyColumns = `id, account_id, name, website, description, created_at, updated_at`

func scanVA(row database.Row) (profile.VAProfile, error) {
	var p profile.VAProfile
	err := row.Scan(&p.ID, &p.AccountID, &p.Headline, &p.Bio, &p.HourlyRate, &p.Skills, &p.AverageRating,
		&p.TotalReviews, &p.ProfileViews, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return profile.VAProfile{}, profileReadErr(err, "va profile")
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	return p, nil
}

func scanCompany(row database.Row) (profile.CompanyProfile, error) {
	var p profile.CompanyProfile
	if err := row.Scan(&p.ID, &p.AccountID, &p.Name, &p.Website, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return profile.CompanyProfile{}, profileReadErr(err, "company profile")
	}
	return p, nil
}

func (r *PostgresProfileRepository) CreateVA(ctx context.Context, p profile.VAProfile) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO va_profiles (`+vaColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.AccountID, p.Headline, p.Bio, p.HourlyRate, p.Skills, p.AverageRating,
		p.TotalReviews, p.ProfileViews, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	return mapWriteErr(err, "va profile")
}

// UpdateVA rewrites the editable fields only; rating and view counters have their own writers.
func (r *PostgresProfileRepository) UpdateVA(ctx context.Context, p profile.VAProfile) error {
	n, err := r.db.Exec(ctx,
		`UPDATE va_profiles
		 SET headline = $2, bio = $3, hourly_rate = $4, skills = $5, updated_at = $6
		 WHERE id = $1`,
		p.ID, p.Headline, p.Bio, p.HourlyRate, p.Skills, p.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err, "va profile")
	}
	if n == 0 {
		return domain.NotFound(domain.CodeProfileNotFound, "va profile not found")
	}
	return nil
}

func (r *PostgresProfileRepository) GetVAByID(ctx context.Context, id uuid.UUID) (profile.VAProfile, error) {
	return scanVA(r.db.QueryRow(ctx, `SELECT `+vaColumns+` FROM va_profiles WHERE id = $1`, id))
}

func (r *PostgresProfileRepository) GetVAByAccountID(ctx context.Context, accountID uuid.UUID) (profile.VAProfile, error) {
	return scanVA(r.db.QueryRow(ctx, `SELECT `+vaColumns+` FROM va_profiles WHERE account_id = $1`, accountID))
}

func (r *PostgresProfileRepository) IncrementVAViews(ctx context.Context, id uuid.UUID) (profile.VAProfile, error) {
	return scanVA(r.db.QueryRow(ctx,
		`UPDATE va_profiles SET profile_views = profile_views + 1 WHERE id = $1 RETURNING `+vaColumns, id))
}

func (r *PostgresProfileRepository) UpdateRatingIfVersion(ctx context.Context, id uuid.UUID, expectedVersion int64, avg float64, total int) (bool, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE va_profiles
		 SET average_rating = $3, total_reviews = $4, version = version + 1, updated_at = $5
		 WHERE id = $1 AND version = $2`,
		id, expectedVersion, avg, total, time.Now().UTC(),
	)
	if err != nil {
		return false, mapWriteErr(err, "va profile")
	}
	return n == 1, nil
}

func (r *PostgresProfileRepository) CreateCompany(ctx context.Context, p profile.CompanyProfile) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO company_profiles (`+companyColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.AccountID, p.Name, p.Website, p.Description, p.CreatedAt, p.UpdatedAt,
	)
	return mapWriteErr(err, "company profile")
}

func (r *PostgresProfileRepository) UpdateCompany(ctx context.Context, p profile.CompanyProfile) error {
	n, err := r.db.Exec(ctx,
		`UPDATE company_profiles SET name = $2, website = $3, description = $4, updated_at = $5 WHERE id = $1`,
		p.ID, p.Name, p.Website, p.Description, p.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err, "company profile")
	}
	if n == 0 {
		return domain.NotFound(domain.CodeProfileNotFound, "company profile not found")
	}
	return nil
}

func (r *PostgresProfileRepository) GetCompanyByID(ctx context.Context, id uuid.UUID) (profile.CompanyProfile, error) {
	return scanCompany(r.db.QueryRow(ctx, `SELECT `+companyColumns+` FROM company_profiles WHERE id = $1`, id))
}

func (r *PostgresProfileRepository) GetCompanyByAccountID(ctx context.Context, accountID uuid.UUID) (profile.CompanyProfile, error) {
	return scanCompany(r.db.QueryRow(ctx, `SELECT `+companyColumns+` FROM company_profiles WHERE account_id = $1`, accountID))
}

func (r *PostgresProfileRepository) ListSkills(ctx context.Context) ([]profile.Skill, error) {
	rows, err := r.db.Query(ctx, `SELECT name, category FROM skills ORDER BY category ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profile.Skill, 0)
	for rows.Next() {
		var s profile.Skill
		if err := rows.Scan(&s.Name, &s.Category); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func profileReadErr(err error, entity string) error {
	err = mapReadErr(err, entity)
	if domain.KindOf(err) == domain.KindNotFound {
		return domain.NotFound(domain.CodeProfileNotFound, "%s not found", entity)
	}
	return err
}
