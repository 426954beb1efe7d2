package profile

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinRating = 1.0
	MaxRating = 5.0
)

type VAProfile struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	Headline      string
	Bio           string
	HourlyRate    decimal.Decimal
	Skills        []string
	AverageRating float64
	TotalReviews  int
	ProfileViews  int64
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CompanyProfile struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	Name        string
	Website     string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RunningMean folds one more rating into an average over n ratings, where n already counts the new one.
func RunningMean(oldAvg float64, n int, newRating float64) float64 {
	if n <= 1 {
		return newRating
	}
	return (oldAvg*float64(n-1) + newRating) / float64(n)
}

func ValidRating(r float64) bool {
	return r >= MinRating && r <= MaxRating
}

// ApplyRating returns the profile with one more review folded into its average.
func (p VAProfile) ApplyRating(r float64) VAProfile {
	p.TotalReviews++
	p.AverageRating = RunningMean(p.AverageRating, p.TotalReviews, r)
	return p
}

func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.Join(strings.Fields(s), " "))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

type Skill struct {
	Name     string
	Category string
}

// DefaultSkillCatalog seeds the skills taxonomy offered to virtual assistants.
var DefaultSkillCatalog = []Skill{
	{Name: "administrative support", Category: "Operations"},
	{Name: "bookkeeping", Category: "Finance"},
	{Name: "calendar management", Category: "Operations"},
	{Name: "customer support", Category: "Support"},
	{Name: "data entry", Category: "Operations"},
	{Name: "email management", Category: "Operations"},
	{Name: "lead generation", Category: "Sales"},
	{Name: "social media management", Category: "Marketing"},
	{Name: "content writing", Category: "Marketing"},
	{Name: "graphic design", Category: "Creative"},
	{Name: "project coordination", Category: "Operations"},
	{Name: "research", Category: "Operations"},
}
