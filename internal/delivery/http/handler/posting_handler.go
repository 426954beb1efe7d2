package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"vahire/internal/delivery/http/dto"
	"vahire/internal/pkg/response"
	"vahire/internal/usecase/postings"
)

type PostingHandler struct {
	svc *postings.Service
}

type createPostingRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Budget      decimal.Decimal `json:"budget"`
	RateMin     decimal.Decimal `json:"rate_min"`
	RateMax     decimal.Decimal `json:"rate_max"`
}

type updatePostingRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Budget      *decimal.Decimal `json:"budget"`
	RateMin     *decimal.Decimal `json:"rate_min"`
	RateMax     *decimal.Decimal `json:"rate_max"`
	Status      *string          `json:"status"`
}

func NewPostingHandler(svc *postings.Service) *PostingHandler {
	return &PostingHandler{svc: svc}
}

func (h *PostingHandler) RegisterPublicRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/postings", h.ListOpen)
	r.Get("/postings/:id", h.View)
}

func (h *PostingHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/postings", h.Create)
	r.Get("/me/postings", h.ListMine)
	r.Patch("/postings/:id", h.Update)
}

func (h *PostingHandler) Create(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req createPostingRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	p, err := h.svc.Create(c.Context(), actor, postings.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		RateMin:     req.RateMin,
		RateMax:     req.RateMax,
	})
	if err != nil {
		return err
	}
	return response.Created(c, dto.NewPostingResponse(p))
}

func (h *PostingHandler) Update(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req updatePostingRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	p, err := h.svc.Update(c.Context(), actor, id, postings.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		RateMin:     req.RateMin,
		RateMax:     req.RateMax,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewPostingResponse(p))
}

func (h *PostingHandler) View(c fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.View(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewPostingResponse(p))
}

func (h *PostingHandler) ListOpen(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", postings.DefaultLimit)
	if err != nil {
		return err
	}
	offset, err := parseQueryIntStrict(c, "offset", 0)
	if err != nil {
		return err
	}

	page, err := h.svc.ListOpen(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	return response.OK(c, dto.PostingPageResponse{
		Items:  dto.NewPostingResponses(page.Items),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

func (h *PostingHandler) ListMine(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListMine(c.Context(), actor)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewPostingResponses(items))
}
