package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crateful-app/crateful-backend/api/controllers"
	webhookcontrollers "github.com/crateful-app/crateful-backend/api/controllers/webhooks"
	"github.com/crateful-app/crateful-backend/api/middleware"
	stripewebhook "github.com/crateful-app/crateful-backend/internal/webhooks/stripe"
	"github.com/crateful-app/crateful-backend/pkg/config"
	"github.com/crateful-app/crateful-backend/pkg/db"
	"github.com/crateful-app/crateful-backend/pkg/logger"
	"github.com/crateful-app/crateful-backend/pkg/metrics"
	"github.com/crateful-app/crateful-backend/pkg/redis"
	"github.com/crateful-app/crateful-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	checkoutService controllers.CheckoutService,
	libraryService controllers.LibraryService,
	reconciler controllers.ReconcileRunner,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
	webhookMetrics *metrics.WebhookMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, webhookMetrics, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/v1/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutCreate(checkoutService, logg))
			r.Post("/confirm", controllers.CheckoutConfirm(checkoutService, logg))
		})

		r.Route("/v1/library", func(r chi.Router) {
			r.Get("/", controllers.LibraryList(libraryService, logg))
			r.Get("/{productId}/access", controllers.LibraryAccessCheck(libraryService, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Post("/v1/reconcile", controllers.AdminReconcileRun(reconciler, logg))
	})

	return r
}
