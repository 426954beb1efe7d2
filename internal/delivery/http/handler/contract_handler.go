package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"vahire/internal/delivery/http/dto"
	"vahire/internal/pkg/response"
	"vahire/internal/usecase/engagement"
)

type ContractHandler struct {
	svc *engagement.Service
}

type updateContractRequest struct {
	Status *string          `json:"status"`
	Amount *decimal.Decimal `json:"amount"`
}

type jobStatusRequest struct {
	Status string `json:"status"`
}

func NewContractHandler(svc *engagement.Service) *ContractHandler {
	return &ContractHandler{svc: svc}
}

func (h *ContractHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/proposals/:id/contract", h.FormContract)
	r.Get("/contracts/:id", h.GetContract)
	r.Patch("/contracts/:id", h.UpdateContract)
	r.Post("/contracts/:id/job", h.CreateJob)
	r.Get("/jobs/:id", h.GetJob)
	r.Patch("/jobs/:id/status", h.UpdateJobStatus)
}

// FormContract replays formation for an accepted proposal; it answers 201 only when something was created.
func (h *ContractHandler) FormContract(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	f, err := h.svc.FormContract(c.Context(), actor, id)
	if err != nil {
		return err
	}
	if f.Created {
		return response.Created(c, dto.NewFormedResponse(f))
	}
	return response.OK(c, dto.NewFormedResponse(f))
}

func (h *ContractHandler) GetContract(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	view, err := engagement.ParseView(c.Query("view"))
	if err != nil {
		return err
	}

	v, err := h.svc.GetContract(c.Context(), actor, id, view)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewContractViewResponse(v))
}

func (h *ContractHandler) UpdateContract(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req updateContractRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ct, err := h.svc.UpdateContract(c.Context(), actor, id, engagement.ContractUpdate{
		Status: req.Status,
		Amount: req.Amount,
	})
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewContractResponse(ct))
}

func (h *ContractHandler) CreateJob(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	job, created, err := h.svc.CreateJobFromContract(c.Context(), actor, id)
	if err != nil {
		return err
	}
	if created {
		return response.Created(c, dto.NewJobResponse(job))
	}
	return response.OK(c, dto.NewJobResponse(job))
}

func (h *ContractHandler) GetJob(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	job, err := h.svc.GetJob(c.Context(), actor, id)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewJobResponse(job))
}

func (h *ContractHandler) UpdateJobStatus(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req jobStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	job, err := h.svc.UpdateJobStatus(c.Context(), actor, id, req.Status)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewJobResponse(job))
}
