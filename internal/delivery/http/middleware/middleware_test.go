package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"vahire/internal/domain"
	"vahire/internal/domain/account"
	"vahire/internal/pkg/circuitbreaker"
	"vahire/internal/pkg/response"
)

func TestNormalizeError_DomainKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.Validation(domain.CodeInvalidInput, "bad"), fiber.StatusBadRequest, domain.CodeInvalidInput},
		{"hours mismatch", domain.Validation(domain.CodeHoursMismatch, "hours"), fiber.StatusUnprocessableEntity, domain.CodeHoursMismatch},
		{"unauthorized", domain.Unauthorized(domain.CodeInvalidCredential, "no"), fiber.StatusUnauthorized, domain.CodeInvalidCredential},
		{"forbidden", domain.Forbidden("no"), fiber.StatusForbidden, domain.CodeForbidden},
		{"not found", domain.NotFound(domain.CodeAccountNotFound, "gone"), fiber.StatusNotFound, domain.CodeAccountNotFound},
		{"conflict wrapped", fmt.Errorf("submit: %w", domain.Conflict(domain.CodeDuplicatePendingProposal, "dup")), fiber.StatusConflict, domain.CodeDuplicatePendingProposal},
		{"dependency failed", domain.Dependency(domain.CodeProviderUnavailable, errors.New("timeout"), "down"), fiber.StatusBadGateway, domain.CodeProviderUnavailable},
		{"dependency open", domain.Dependency(domain.CodeProviderUnavailable, circuitbreaker.ErrOpen, "open"), fiber.StatusServiceUnavailable, domain.CodeProviderUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, _, data := normalizeError(tc.err)
			if status != tc.status {
				t.Fatalf("status = %d, want %d", status, tc.status)
			}
			m, ok := data.(fiber.Map)
			if !ok || m["code"] != tc.code {
				t.Fatalf("data = %#v, want code %s", data, tc.code)
			}
		})
	}
}

func TestNormalizeError_HidesInternalErrors(t *testing.T) {
	status, msg, data := normalizeError(errors.New("pq: connection reset"))
	if status != fiber.StatusInternalServerError || msg != response.MessageInternalServerError || data != nil {
		t.Fatalf("got %d %q %v", status, msg, data)
	}
}

func TestErrorMiddleware_WritesEnvelope(t *testing.T) {
	app := fiber.New()
	app.Use(NewErrorMiddleware(zap.NewNop()).Middleware())
	app.Get("/conflict", func(c fiber.Ctx) error {
		return domain.Conflict(domain.CodeRefundExceedsPayment, "refund 10 exceeds refundable 5")
	})
	app.Get("/panic", func(c fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/conflict", nil))
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	var env struct {
		Status  int               `json:"status"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode: %v (%s)", err, body)
	}
	if env.Status != fiber.StatusConflict || env.Data["code"] != domain.CodeRefundExceedsPayment {
		t.Fatalf("envelope = %+v", env)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/panic", nil))
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("panic status = %d", resp.StatusCode)
	}
}

type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, bearer string) (account.Actor, error) {
	if bearer != "good" {
		return account.Actor{}, domain.ErrInvalidCredential
	}
	return account.Actor{AccountID: uuid.New(), Role: account.RoleAdmin}, nil
}

func TestAuthMiddleware(t *testing.T) {
	auth := NewAuthMiddleware(stubResolver{})
	app := fiber.New()
	app.Use(NewErrorMiddleware(zap.NewNop()).Middleware())
	app.Get("/api", auth.Middleware(), func(c fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return errors.New("no actor")
		}
		return c.SendString(string(actor.Role))
	})
	app.Get("/ws", auth.QueryTokenMiddleware(), func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing", "/api", "", fiber.StatusUnauthorized},
		{"bad scheme", "/api", "Basic good", fiber.StatusUnauthorized},
		{"bad token", "/api", "Bearer bad", fiber.StatusUnauthorized},
		{"ok", "/api", "Bearer good", fiber.StatusOK},
		{"query token ignored on api", "/api?token=good", "", fiber.StatusUnauthorized},
		{"query token on ws", "/ws?token=good", "", fiber.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("test: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}
