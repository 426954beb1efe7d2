package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain/profile"
)

type VAProfileResponse struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Headline      string          `json:"headline"`
	Bio           string          `json:"bio"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
	Skills        []string        `json:"skills"`
	AverageRating float64         `json:"average_rating"`
	TotalReviews  int             `json:"total_reviews"`
	ProfileViews  int64           `json:"profile_views"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func NewVAProfileResponse(p profile.VAProfile) VAProfileResponse {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	return VAProfileResponse{
		ID:            p.ID,
		AccountID:     p.AccountID,
		Headline:      p.Headline,
		Bio:           p.Bio,
		HourlyRate:    p.HourlyRate,
		Skills:        skills,
		AverageRating: p.AverageRating,
		TotalReviews:  p.TotalReviews,
		ProfileViews:  p.ProfileViews,
		UpdatedAt:     p.UpdatedAt,
	}
}

type CompanyProfileResponse struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"account_id"`
	Name        string    `json:"name"`
	Website     string    `json:"website"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewCompanyProfileResponse(p profile.CompanyProfile) CompanyProfileResponse {
	return CompanyProfileResponse{
		ID:          p.ID,
		AccountID:   p.AccountID,
		Name:        p.Name,
		Website:     p.Website,
		Description: p.Description,
		UpdatedAt:   p.UpdatedAt,
	}
}

type SkillResponse struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func NewSkillResponses(in []profile.Skill) []SkillResponse {
	out := make([]SkillResponse, 0, len(in))
	for _, s := range in {
		out = append(out, SkillResponse{Name: s.Name, Category: s.Category})
	}
	return out
}
