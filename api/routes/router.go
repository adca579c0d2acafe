package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caremesh/caremesh-backend/api/controllers"
	"github.com/caremesh/caremesh-backend/api/middleware"
	checkoutsvc "github.com/caremesh/caremesh-backend/internal/checkout"
	ledgersvc "github.com/caremesh/caremesh-backend/internal/ledger"
	refundsvc "github.com/caremesh/caremesh-backend/internal/refunds"
	"github.com/caremesh/caremesh-backend/pkg/config"
	"github.com/caremesh/caremesh-backend/pkg/enums"
	"github.com/caremesh/caremesh-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	checkoutService checkoutsvc.Service,
	refundService refundsvc.Service,
	ledgerService ledgersvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))
		r.Post("/refund-requests", controllers.CreateRefundRequest(refundService, logg))
		r.Get("/clinics/{clinicID}/balances", controllers.ListClinicBalances(ledgerService, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRolePlatformAdmin), logg))

			r.Get("/refund-requests", controllers.ListRefundRequests(refundService, logg))
			r.Post("/refund-requests/{requestID}/approve", controllers.ApproveRefundRequest(refundService, logg))
			r.Post("/refund-requests/{requestID}/deny", controllers.DenyRefundRequest(refundService, logg))
		})
	})

	return r
}
