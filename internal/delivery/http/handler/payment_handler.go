package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"vahire/internal/delivery/http/dto"
	"vahire/internal/pkg/response"
	"vahire/internal/usecase/payments"
)

type PaymentHandler struct {
	svc *payments.Service
}

type paymentTargetRequest struct {
	JobID       *string `json:"job_id"`
	ContractID  *string `json:"contract_id"`
	MilestoneID *string `json:"milestone_id"`
}

type paymentIntentRequest struct {
	paymentTargetRequest
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

type createPaymentRequest struct {
	paymentTargetRequest
	TransactionRef string          `json:"transaction_reference"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Description    string          `json:"description"`
}

type settleRequest struct {
	Status string `json:"status"`
}

type refundRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	RefundedAt *string         `json:"refunded_at"`
}

func NewPaymentHandler(svc *payments.Service) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/payments/intents", h.CreateIntent)
	r.Post("/payments", h.Create)
	r.Get("/payments/:id", h.Get)
	r.Post("/payments/:id/confirm", h.Confirm)
	r.Post("/payments/:id/refunds", h.RecordRefund)
	r.Get("/contracts/:id/payments", h.ListByContract)
	r.Get("/accounts/:id/payments/total", h.TotalByAccount)
}

// RegisterAdminRoutes mounts the settlement hook, which only exists while the sandbox provider is in use.
func (h *PaymentHandler) RegisterAdminRoutes(r fiber.Router) {
	if r == nil || !h.svc.SettlementEnabled() {
		return
	}
	r.Post("/payments/:id/settle", h.Settle)
}

func (t paymentTargetRequest) target() (payments.Target, error) {
	job, err := optionalUUID(t.JobID, "job_id")
	if err != nil {
		return payments.Target{}, err
	}
	ct, err := optionalUUID(t.ContractID, "contract_id")
	if err != nil {
		return payments.Target{}, err
	}
	ms, err := optionalUUID(t.MilestoneID, "milestone_id")
	if err != nil {
		return payments.Target{}, err
	}
	return payments.Target{JobID: job, ContractID: ct, MilestoneID: ms}, nil
}

func (h *PaymentHandler) CreateIntent(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req paymentIntentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	target, err := req.target()
	if err != nil {
		return err
	}

	res, err := h.svc.CreateIntent(c.Context(), actor, payments.IntentInput{
		Target:      target,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return response.Created(c, dto.PaymentIntentResponse{
		Payment:      dto.NewPaymentResponse(res.Payment),
		ClientSecret: res.ClientSecret,
	})
}

func (h *PaymentHandler) Create(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req createPaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	target, err := req.target()
	if err != nil {
		return err
	}

	p, err := h.svc.Create(c.Context(), actor, payments.CreateInput{
		Target:         target,
		TransactionRef: req.TransactionRef,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Description:    req.Description,
	})
	if err != nil {
		return err
	}
	return response.Created(c, dto.NewPaymentResponse(p))
}

func (h *PaymentHandler) Confirm(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.Confirm(c.Context(), actor, id)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewPaymentResponse(p))
}

func (h *PaymentHandler) RecordRefund(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req refundRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	at, err := optionalTime(req.RefundedAt, "refunded_at")
	if err != nil {
		return err
	}

	p, err := h.svc.RecordRefund(c.Context(), actor, id, req.Amount, at)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewPaymentResponse(p))
}

func (h *PaymentHandler) Get(c fiber.Ctx) error {
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
	return response.OK(c, dto.NewPaymentResponse(p))
}

func (h *PaymentHandler) ListByContract(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	contractID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListByContract(c.Context(), actor, contractID)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewPaymentResponses(items))
}

func (h *PaymentHandler) TotalByAccount(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	accountID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	total, err := h.svc.TotalByAccount(c.Context(), actor, accountID)
	if err != nil {
		return err
	}
	return response.OK(c, dto.AccountTotalResponse{AccountID: accountID, Total: total})
}

func (h *PaymentHandler) Settle(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req settleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	p, err := h.svc.Settle(c.Context(), actor, id, req.Status)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewPaymentResponse(p))
}
