package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"

	"vahire/internal/domain"
	"vahire/internal/domain/account"
)

const CtxActorKey = "actor"

// Resolver turns a bearer credential into the acting account.
type Resolver interface {
	Resolve(ctx context.Context, bearer string) (account.Actor, error)
}

type AuthMiddleware struct {
	resolver Resolver
}

func NewAuthMiddleware(resolver Resolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

func (m *AuthMiddleware) Middleware() fiber.Handler {
	return m.handler(false)
}

// QueryTokenMiddleware also accepts ?token= for clients that cannot set headers on a websocket upgrade.
func (m *AuthMiddleware) QueryTokenMiddleware() fiber.Handler {
	return m.handler(true)
}

func (m *AuthMiddleware) handler(allowQuery bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := BearerToken(c.Get("Authorization"))
		if !ok && allowQuery {
			token = strings.TrimSpace(c.Query("token"))
			ok = token != ""
		}
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", codeData(domain.CodeInvalidCredential), nil)
		}

		actor, err := m.resolver.Resolve(c.Context(), token)
		if err != nil {
			return err
		}

		c.Locals(CtxActorKey, actor)
		return c.Next()
	}
}

// RequireAdmin rejects every non-admin actor.
func RequireAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}
		if !actor.IsAdmin() {
			return domain.Forbidden("admin only")
		}
		return c.Next()
	}
}

func ActorFrom(c fiber.Ctx) (account.Actor, bool) {
	actor, ok := c.Locals(CtxActorKey).(account.Actor)
	return actor, ok
}

func BearerToken(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
