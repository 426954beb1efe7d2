package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"vahire/internal/domain"
	"vahire/internal/pkg/response"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe reports whether an optional dependency is connected.
type Probe func() bool

type HealthHandler struct {
	store  Pinger
	redis  Probe
	broker Probe
	driver string
	logger *zap.Logger
}

func NewHealthHandler(store Pinger, redis, broker Probe, driver string, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{store: store, redis: redis, broker: broker, driver: driver, logger: logger}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	st := domain.HealthStatus{StoreDriver: h.driver, ServerTime: time.Now().UTC()}
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			h.logger.Warn("health: store ping failed", zap.Error(err))
		} else {
			st.DatabaseHealthy = true
		}
	}
	if h.redis != nil {
		st.RedisHealthy = h.redis()
	}
	if h.broker != nil {
		st.BrokerHealthy = h.broker()
	}

	if !st.Healthy() {
		return response.Error(c, fiber.StatusServiceUnavailable, response.MessageDependencyUnavailable, st)
	}
	return response.OK(c, st)
}
