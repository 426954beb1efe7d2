package handler

import (
	"github.com/gofiber/fiber/v3"

	"vahire/internal/delivery/http/dto"
	"vahire/internal/delivery/http/middleware"
	"vahire/internal/domain/account"
	"vahire/internal/pkg/response"
	"vahire/internal/usecase/identity"
)

type AuthHandler struct {
	svc *identity.Service
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func NewAuthHandler(svc *identity.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
}

func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	sess, err := h.svc.Register(c.Context(), identity.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     account.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return response.Created(c, sessionResponse(sess))
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	sess, err := h.svc.Login(c.Context(), identity.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return response.OK(c, sessionResponse(sess))
}

// Refresh takes the refresh token from the Authorization header, or from the body when the header is absent.
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	tok, ok := middleware.BearerToken(c.Get("Authorization"))
	if !ok && len(c.Body()) > 0 {
		var req refreshRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		tok = req.RefreshToken
	}
	if tok == "" {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	pair, err := h.svc.Refresh(c.Context(), tok)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewTokenResponse(pair))
}

func sessionResponse(s identity.Session) dto.SessionResponse {
	return dto.SessionResponse{Account: dto.NewAccountResponse(s.Account), TokenResponse: dto.NewTokenResponse(s.Tokens)}
}
