package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"vahire/internal/delivery/http/dto"
	"vahire/internal/pkg/response"
	"vahire/internal/usecase/engagement"
	"vahire/internal/usecase/proposals"
)

type ProposalHandler struct {
	svc *proposals.Service
}

type submitProposalRequest struct {
	BidType           string          `json:"bid_type"`
	BidAmount         decimal.Decimal `json:"bid_amount"`
	CoverLetter       string          `json:"cover_letter"`
	EstimatedDuration string          `json:"estimated_duration"`
}

type decisionRequest struct {
	Outcome         string          `json:"outcome"`
	RespondedAt     *string         `json:"responded_at"`
	Terms           *string         `json:"terms"`
	Deliverables    []string        `json:"deliverables"`
	MilestonesData  json.RawMessage `json:"milestones_data"`
	PaymentSchedule json.RawMessage `json:"payment_schedule"`
}

func NewProposalHandler(svc *proposals.Service) *ProposalHandler {
	return &ProposalHandler{svc: svc}
}

func (h *ProposalHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/postings/:id/proposals", h.Submit)
	r.Get("/postings/:id/proposals", h.ListForPosting)
	r.Get("/me/proposals", h.ListMine)
	r.Get("/proposals/:id", h.Get)
	r.Post("/proposals/:id/withdraw", h.Withdraw)
	r.Post("/proposals/:id/decision", h.Decide)
}

func (h *ProposalHandler) Submit(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	postingID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req submitProposalRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	p, err := h.svc.Submit(c.Context(), actor, postingID, proposals.SubmitInput{
		BidType:           req.BidType,
		BidAmount:         req.BidAmount,
		CoverLetter:       req.CoverLetter,
		EstimatedDuration: req.EstimatedDuration,
	})
	if err != nil {
		return err
	}
	return response.Created(c, dto.NewProposalResponse(p))
}

func (h *ProposalHandler) Withdraw(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.Withdraw(c.Context(), actor, id)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewProposalResponse(p))
}

// Decide accepts or rejects a pending proposal. An acceptance returns the contract and job formed with it.
func (h *ProposalHandler) Decide(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req decisionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	respondedAt, err := optionalTime(req.RespondedAt, "responded_at")
	if err != nil {
		return err
	}

	d, err := h.svc.Decide(c.Context(), actor, id, req.Outcome, engagement.Terms{
		Terms:           req.Terms,
		Deliverables:    req.Deliverables,
		MilestonesData:  req.MilestonesData,
		PaymentSchedule: req.PaymentSchedule,
	}, respondedAt)
	if err != nil {
		return err
	}
	out := dto.DecisionResponse{Proposal: dto.NewProposalResponse(d.Proposal)}
	if d.Formed != nil {
		ct := dto.NewContractResponse(d.Formed.Contract)
		job := dto.NewJobResponse(d.Formed.Job)
		out.Contract = &ct
		out.Job = &job
	}
	return response.OK(c, out)
}

func (h *ProposalHandler) Get(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Context(), actor, id)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewProposalResponse(p))
}

func (h *ProposalHandler) ListForPosting(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	postingID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListForPosting(c.Context(), actor, postingID)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewProposalResponses(items))
}

func (h *ProposalHandler) ListMine(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListMine(c.Context(), actor)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewProposalResponses(items))
}
