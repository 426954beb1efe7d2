package handler

import (
	"github.com/gofiber/fiber/v3"

	"vahire/internal/delivery/http/dto"
	"vahire/internal/domain/account"
	"vahire/internal/pkg/response"
	"vahire/internal/usecase/identity"
)

type AccountHandler struct {
	svc *identity.Service
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func NewAccountHandler(svc *identity.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// RegisterRoutes mounts the caller's own account view.
func (h *AccountHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/me", h.Me)
}

// RegisterAdminRoutes mounts the privileged account actions.
func (h *AccountHandler) RegisterAdminRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Put("/accounts/:id/role", h.SetRole)
	r.Post("/accounts/:id/verify-email", h.MarkEmailVerified)
}

func (h *AccountHandler) Me(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAccount(c.Context(), actor.AccountID)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewAccountResponse(a))
}

func (h *AccountHandler) SetRole(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req setRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	a, err := h.svc.SetRole(c.Context(), actor, id, account.Role(req.Role))
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewAccountResponse(a))
}

func (h *AccountHandler) MarkEmailVerified(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	a, err := h.svc.MarkEmailVerified(c.Context(), actor, id)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewAccountResponse(a))
}
