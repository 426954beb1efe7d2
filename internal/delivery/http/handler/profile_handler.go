package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"vahire/internal/delivery/http/dto"
	"vahire/internal/pkg/response"
	"vahire/internal/usecase/profiles"
)

type ProfileHandler struct {
	svc *profiles.Service
}

type vaProfileRequest struct {
	Headline   string          `json:"headline"`
	Bio        string          `json:"bio"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	Skills     []string        `json:"skills"`
}

type companyProfileRequest struct {
	Name        string `json:"name"`
	Website     string `json:"website"`
	Description string `json:"description"`
}

type ratingRequest struct {
	Rating float64 `json:"rating"`
}

func NewProfileHandler(svc *profiles.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// RegisterPublicRoutes mounts the routes that need no account.
func (h *ProfileHandler) RegisterPublicRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/skills", h.ListSkills)
	r.Get("/profiles/va/:id", h.ViewVA)
	r.Get("/profiles/company/:id", h.GetCompany)
}

func (h *ProfileHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/me/va-profile", h.MyVA)
	r.Put("/me/va-profile", h.UpsertVA)
	r.Get("/me/company-profile", h.MyCompany)
	r.Put("/me/company-profile", h.UpsertCompany)
	r.Post("/contracts/:id/rating", h.RateVA)
}

func (h *ProfileHandler) UpsertVA(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req vaProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	p, err := h.svc.UpsertVA(c.Context(), actor, profiles.VAInput{
		Headline:   req.Headline,
		Bio:        req.Bio,
		HourlyRate: req.HourlyRate,
		Skills:     req.Skills,
	})
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewVAProfileResponse(p))
}

func (h *ProfileHandler) UpsertCompany(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req companyProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	p, err := h.svc.UpsertCompany(c.Context(), actor, profiles.CompanyInput{
		Name:        req.Name,
		Website:     req.Website,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewCompanyProfileResponse(p))
}

func (h *ProfileHandler) ViewVA(c fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.ViewVA(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewVAProfileResponse(p))
}

func (h *ProfileHandler) MyVA(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	p, err := h.svc.MyVA(c.Context(), actor)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewVAProfileResponse(p))
}

func (h *ProfileHandler) MyCompany(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	p, err := h.svc.MyCompany(c.Context(), actor)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewCompanyProfileResponse(p))
}

func (h *ProfileHandler) GetCompany(c fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetCompany(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewCompanyProfileResponse(p))
}

func (h *ProfileHandler) ListSkills(c fiber.Ctx) error {
	skills, err := h.svc.ListSkills(c.Context())
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewSkillResponses(skills))
}

func (h *ProfileHandler) RateVA(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	contractID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req ratingRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	p, err := h.svc.RateVA(c.Context(), actor, contractID, req.Rating)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewVAProfileResponse(p))
}
