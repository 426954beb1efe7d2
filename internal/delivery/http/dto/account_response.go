package dto

import (
	"time"

	"github.com/google/uuid"

	"vahire/internal/domain/account"
	"vahire/internal/pkg/jwt"
)

type AccountResponse struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	ProfileComplete bool      `json:"profile_complete"`
	EmailVerified   bool      `json:"email_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewAccountResponse(a account.Account) AccountResponse {
	return AccountResponse{
		ID:              a.ID,
		Email:           a.Email,
		Role:            string(a.Role),
		ProfileComplete: a.ProfileComplete,
		EmailVerified:   a.EmailVerified,
		CreatedAt:       a.CreatedAt,
	}
}

type TokenResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func NewTokenResponse(p jwt.Pair) TokenResponse {
	return TokenResponse{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}

type SessionResponse struct {
	Account AccountResponse `json:"account"`
	TokenResponse
}
