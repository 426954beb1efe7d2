package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"vahire/internal/delivery/http/middleware"
	"vahire/internal/domain"
	"vahire/internal/domain/account"
)

func actorOf(c fiber.Ctx) (account.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return account.Actor{}, middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	return actor, nil
}

func uuidParam(c fiber.Ctx, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(key))
	if err != nil {
		return uuid.Nil, domain.Validation(domain.CodeInvalidInput, "%s must be a uuid", key)
	}
	return id, nil
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.Validation(domain.CodeInvalidInput, "%s must be an integer", key)
	}
	return v, nil
}

func optionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, domain.Validation(domain.CodeInvalidInput, "%s must be a uuid", field)
	}
	return &id, nil
}

// optionalTime accepts RFC 3339 instants and bare dates.
func optionalTime(raw *string, field string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.Validation(domain.CodeInvalidInput, "%s must be an RFC 3339 time or a YYYY-MM-DD date", field)
}

func bind(c fiber.Ctx, out any) error {
	if err := c.Bind().Body(out); err != nil {
		return middleware.BadRequest(err)
	}
	return nil
}
