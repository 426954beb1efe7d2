package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain/posting"
	"vahire/internal/domain/proposal"
)

type PostingResponse struct {
	ID               uuid.UUID       `json:"id"`
	CompanyProfileID uuid.UUID       `json:"company_profile_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Budget           decimal.Decimal `json:"budget"`
	RateMin          decimal.Decimal `json:"rate_min"`
	RateMax          decimal.Decimal `json:"rate_max"`
	Status           string          `json:"status"`
	Views            int64           `json:"views"`
	ProposalCount    int             `json:"proposal_count"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func NewPostingResponse(p posting.Posting) PostingResponse {
	return PostingResponse{
		ID:               p.ID,
		CompanyProfileID: p.CompanyProfileID,
		Title:            p.Title,
		Description:      p.Description,
		Budget:           p.Budget,
		RateMin:          p.RateMin,
		RateMax:          p.RateMax,
		Status:           string(p.Status),
		Views:            p.Views,
		ProposalCount:    p.ProposalCount,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func NewPostingResponses(in []posting.Posting) []PostingResponse {
	out := make([]PostingResponse, 0, len(in))
	for _, p := range in {
		out = append(out, NewPostingResponse(p))
	}
	return out
}

type PostingPageResponse struct {
	Items  []PostingResponse `json:"items"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type ProposalResponse struct {
	ID                uuid.UUID       `json:"id"`
	JobPostingID      uuid.UUID       `json:"job_posting_id"`
	VAProfileID       uuid.UUID       `json:"va_profile_id"`
	BidType           string          `json:"bid_type"`
	BidAmount         decimal.Decimal `json:"bid_amount"`
	CoverLetter       string          `json:"cover_letter"`
	EstimatedDuration string          `json:"estimated_duration"`
	Status            string          `json:"status"`
	RespondedAt       *time.Time      `json:"responded_at"`
	CreatedAt         time.Time       `json:"created_at"`
}

func NewProposalResponse(p proposal.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:                p.ID,
		JobPostingID:      p.JobPostingID,
		VAProfileID:       p.VAProfileID,
		BidType:           string(p.BidType),
		BidAmount:         p.BidAmount,
		CoverLetter:       p.CoverLetter,
		EstimatedDuration: p.EstimatedDuration,
		Status:            string(p.Status),
		RespondedAt:       p.RespondedAt,
		CreatedAt:         p.CreatedAt,
	}
}

func NewProposalResponses(in []proposal.Proposal) []ProposalResponse {
	out := make([]ProposalResponse, 0, len(in))
	for _, p := range in {
		out = append(out, NewProposalResponse(p))
	}
	return out
}

// DecisionResponse carries the formed engagement when the decision accepted the proposal.
type DecisionResponse struct {
	Proposal ProposalResponse  `json:"proposal"`
	Contract *ContractResponse `json:"contract,omitempty"`
	Job      *JobResponse      `json:"job,omitempty"`
}
