package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/handler"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Health       handler.HealthHandler
	Auth         handler.AuthHandler
	Owners       handler.OwnerHandler
	Sections     handler.ReferenceHandler
	SaleTypes    handler.ReferenceHandler
	Stores       handler.StoreHandler
	Stalls       handler.StallHandler
	Leases       handler.LeaseHandler
	Attendance   handler.AttendanceHandler
	Transactions handler.TransactionHandler
	Payments     handler.PaymentHandler
	Webhooks     handler.WebhookHandler
	Dashboard    handler.DashboardHandler
	Reports      handler.ReportHandler
}

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config, logger *slog.Logger, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h.Health.RegisterRoutes(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		// gateways call from a handful of addresses; keep them off the per-IP limit
		h.Webhooks.RegisterRoutes(api)

		api.Group(func(lr chi.Router) {
			lr.Use(httprate.LimitByIP(rateLimit(cfg), time.Minute))
			h.Auth.RegisterRoutes(lr)
			h.Payments.RegisterRoutes(lr)

			lr.Group(func(pr chi.Router) {
				pr.Use(AuthMiddleware(cfg.JWTSecret))
				h.Auth.RegisterProtectedRoutes(pr)

				// cashier-level (cashier/manager/admin)
				pr.Group(func(cr chi.Router) {
					cr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleCashier))
					h.Owners.RegisterRoutes(cr)
					h.Sections.RegisterRoutes(cr)
					h.SaleTypes.RegisterRoutes(cr)
					h.Stores.RegisterRoutes(cr)
					h.Stalls.RegisterRoutes(cr)
					h.Leases.RegisterRoutes(cr)
					h.Attendance.RegisterRoutes(cr)
					h.Transactions.RegisterRoutes(cr)
				})
				// manager-level (manager/admin)
				pr.Group(func(mr chi.Router) {
					mr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager))
					h.Owners.RegisterManageRoutes(mr)
					h.Sections.RegisterManageRoutes(mr)
					h.SaleTypes.RegisterManageRoutes(mr)
					h.Stores.RegisterManageRoutes(mr)
					h.Stalls.RegisterManageRoutes(mr)
					h.Leases.RegisterManageRoutes(mr)
					h.Dashboard.RegisterRoutes(mr)
					h.Reports.RegisterRoutes(mr)
				})
				pr.Group(func(ar chi.Router) {
					ar.Use(RequireRole(domain.RoleAdmin))
					h.Auth.RegisterAdminRoutes(ar)
				})
			})
		})
	})

	return r
}

func rateLimit(cfg config.Config) int {
	if cfg.RateLimitPerMinute <= 0 {
		return 200
	}
	return cfg.RateLimitPerMinute
}
