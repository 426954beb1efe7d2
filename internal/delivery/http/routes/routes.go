package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vahire/internal/delivery/http/handler"
	"vahire/internal/delivery/http/middleware"
	v1 "vahire/internal/delivery/http/routes/v1"
	"vahire/internal/ws"
)

type Registry struct {
	health *handler.HealthHandler
	ws     *ws.Handler
	authMw *middleware.AuthMiddleware
	v1     v1.Handlers
}

func NewRegistry(health *handler.HealthHandler, wsHandler *ws.Handler, authMw *middleware.AuthMiddleware, api v1.Handlers) *Registry {
	return &Registry{health: health, ws: wsHandler, authMw: authMw, v1: api}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerOps(app)
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	r.health.RegisterRoutes(app)
}

func (r *Registry) registerOps(app *fiber.App) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if r.ws != nil {
		app.Get("/ws", r.authMw.QueryTokenMiddleware(), r.ws.HandleNotificationsWS)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.v1, r.authMw)
}
