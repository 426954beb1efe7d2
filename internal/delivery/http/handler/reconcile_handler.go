package handler

import (
	"github.com/gofiber/fiber/v3"

	"vahire/internal/delivery/http/dto"
	"vahire/internal/pkg/response"
	"vahire/internal/usecase/reconcile"
)

type ReconcileHandler struct {
	svc *reconcile.Service
}

func NewReconcileHandler(svc *reconcile.Service) *ReconcileHandler {
	return &ReconcileHandler{svc: svc}
}

func (h *ReconcileHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/reconcile", h.Report)
	r.Post("/reconcile/counters", h.RepairCounters)
	r.Post("/reconcile/formations", h.RepairFormations)
}

func (h *ReconcileHandler) Report(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	limit, err := parseQueryIntStrict(c, "limit", 0)
	if err != nil {
		return err
	}
	r, err := h.svc.Report(c.Context(), actor, limit)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewReconcileReportResponse(r))
}

func (h *ReconcileHandler) RepairCounters(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	fixed, err := h.svc.RepairCounters(c.Context(), actor)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewCounterDriftResponses(fixed))
}

func (h *ReconcileHandler) RepairFormations(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	out, err := h.svc.RepairFormations(c.Context(), actor)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{
		"contracts_formed": out.ContractsFormed,
		"jobs_created":     out.JobsCreated,
	})
}
