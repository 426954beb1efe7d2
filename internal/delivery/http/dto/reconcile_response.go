package dto

import (
	"time"

	"github.com/google/uuid"

	"vahire/internal/repository"
	"vahire/internal/usecase/reconcile"
)

type CounterDriftResponse struct {
	JobPostingID uuid.UUID `json:"job_posting_id"`
	Recorded     int       `json:"recorded"`
	Actual       int       `json:"actual"`
}

type UnformedProposalResponse struct {
	ProposalID   uuid.UUID `json:"proposal_id"`
	JobPostingID uuid.UUID `json:"job_posting_id"`
	VAProfileID  uuid.UUID `json:"va_profile_id"`
}

type ContractWithoutJobResponse struct {
	ContractID uuid.UUID `json:"contract_id"`
	ProposalID uuid.UUID `json:"proposal_id"`
}

type ReconcileReportResponse struct {
	Clean               bool                         `json:"clean"`
	CounterDrift        []CounterDriftResponse       `json:"counter_drift"`
	UnformedProposals   []UnformedProposalResponse   `json:"unformed_proposals"`
	ContractsWithoutJob []ContractWithoutJobResponse `json:"contracts_without_job"`
	Failed              []string                     `json:"failed_checks"`
	GeneratedAt         time.Time                    `json:"generated_at"`
}

func NewReconcileReportResponse(r reconcile.Report) ReconcileReportResponse {
	out := ReconcileReportResponse{
		Clean:               r.Clean(),
		CounterDrift:        NewCounterDriftResponses(r.CounterDrift),
		UnformedProposals:   make([]UnformedProposalResponse, 0, len(r.UnformedProposals)),
		ContractsWithoutJob: make([]ContractWithoutJobResponse, 0, len(r.ContractsWithoutJob)),
		Failed:              r.Failed,
		GeneratedAt:         r.GeneratedAt,
	}
	if out.Failed == nil {
		out.Failed = []string{}
	}
	for _, u := range r.UnformedProposals {
		out.UnformedProposals = append(out.UnformedProposals, UnformedProposalResponse{ProposalID: u.ProposalID, JobPostingID: u.JobPostingID, VAProfileID: u.VAProfileID})
	}
	for _, c := range r.ContractsWithoutJob {
		out.ContractsWithoutJob = append(out.ContractsWithoutJob, ContractWithoutJobResponse{ContractID: c.ContractID, ProposalID: c.ProposalID})
	}
	return out
}

func NewCounterDriftResponses(in []repository.CounterDrift) []CounterDriftResponse {
	out := make([]CounterDriftResponse, 0, len(in))
	for _, d := range in {
		out = append(out, CounterDriftResponse{JobPostingID: d.PostingID, Recorded: d.Recorded, Actual: d.Actual})
	}
	return out
}
