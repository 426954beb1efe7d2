package v1

import (
	"github.com/gofiber/fiber/v3"

	"vahire/internal/delivery/http/handler"
	"vahire/internal/delivery/http/middleware"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	Account   *handler.AccountHandler
	Profile   *handler.ProfileHandler
	Posting   *handler.PostingHandler
	Proposal  *handler.ProposalHandler
	Contract  *handler.ContractHandler
	Worklog   *handler.WorklogHandler
	Payment   *handler.PaymentHandler
	Reconcile *handler.ReconcileHandler
}

// Register mounts the v1 API. Public routes go first; everything registered after the protected group
// requires a resolved actor.
func Register(r fiber.Router, h Handlers, authMw *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	h.Auth.RegisterRoutes(r.Group("/auth"))
	h.Profile.RegisterPublicRoutes(r)
	h.Posting.RegisterPublicRoutes(r)

	protected := r.Group("", authMw.Middleware())

	h.Account.RegisterRoutes(protected)
	h.Profile.RegisterRoutes(protected)
	h.Posting.RegisterRoutes(protected)
	h.Proposal.RegisterRoutes(protected)
	h.Contract.RegisterRoutes(protected)
	h.Worklog.RegisterRoutes(protected)
	h.Payment.RegisterRoutes(protected)

	admin := protected.Group("/admin", middleware.RequireAdmin())
	h.Account.RegisterAdminRoutes(admin)
	h.Payment.RegisterAdminRoutes(admin)
	h.Reconcile.RegisterRoutes(admin)
}
