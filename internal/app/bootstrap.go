package app

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"vahire/internal/config"
	"vahire/internal/delivery/http/handler"
	"vahire/internal/delivery/http/middleware"
	"vahire/internal/delivery/http/routes"
	v1 "vahire/internal/delivery/http/routes/v1"
	"vahire/internal/ws"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Logger)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap builds the container and the HTTP app. The returned cleanup releases every connection the
// container opened.
func Bootstrap(cfg config.Config) (*App, func() error, error) {
	logger, err := NewLogger(cfg.App.Environment)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	logger = logger.With(zap.String("app", cfg.App.AppName), zap.String("env", cfg.App.Environment))

	c, err := NewContainer(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}

	app := New(c)
	cleanup := func() error {
		return c.Close()
	}
	return app, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *zap.Logger) {
	if app == nil {
		return
	}

	errMw := middleware.NewErrorMiddleware(logger.Named("http"))
	accessMw := middleware.NewAccessLogMiddleware(logger.Named("access"))

	app.Use(errMw.Middleware())
	app.Use(accessMw.Middleware())
	app.Use(middleware.Metrics())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil || c == nil {
		return
	}

	authMw := middleware.NewAuthMiddleware(c.Identity)

	var redisProbe, brokerProbe handler.Probe
	if c.Cache != nil {
		redisProbe = c.Cache.Available
	}
	if c.Publisher != nil {
		brokerProbe = c.Publisher.IsConnected
	}
	health := handler.NewHealthHandler(c.Store, redisProbe, brokerProbe, c.Config.Database.Driver, c.Logger.Named("health"))
	wsHandler := ws.NewHandler(c.Hub, middleware.ActorFrom, c.Logger.Named("ws"))

	api := v1.Handlers{
		Auth:      handler.NewAuthHandler(c.Identity),
		Account:   handler.NewAccountHandler(c.Identity),
		Profile:   handler.NewProfileHandler(c.Profiles),
		Posting:   handler.NewPostingHandler(c.Postings),
		Proposal:  handler.NewProposalHandler(c.Proposals),
		Contract:  handler.NewContractHandler(c.Engagement),
		Worklog:   handler.NewWorklogHandler(c.Worklog),
		Payment:   handler.NewPaymentHandler(c.Payments),
		Reconcile: handler.NewReconcileHandler(c.Reconcile),
	}

	routes.NewRegistry(health, wsHandler, authMw, api).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
