package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/crateful-app/crateful-backend/api/routes"
	"github.com/crateful-app/crateful-backend/internal/catalog"
	"github.com/crateful-app/crateful-backend/internal/checkout"
	"github.com/crateful-app/crateful-backend/internal/creators"
	"github.com/crateful-app/crateful-backend/internal/entitlements"
	"github.com/crateful-app/crateful-backend/internal/pricing"
	"github.com/crateful-app/crateful-backend/internal/reconcile"
	stripewebhook "github.com/crateful-app/crateful-backend/internal/webhooks/stripe"
	"github.com/crateful-app/crateful-backend/pkg/config"
	"github.com/crateful-app/crateful-backend/pkg/db"
	"github.com/crateful-app/crateful-backend/pkg/logger"
	"github.com/crateful-app/crateful-backend/pkg/metrics"
	"github.com/crateful-app/crateful-backend/pkg/migrate"
	"github.com/crateful-app/crateful-backend/pkg/outbox"
	"github.com/crateful-app/crateful-backend/pkg/redis"
	pkgstripe "github.com/crateful-app/crateful-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	entitlementService, err := entitlements.NewService(entitlements.ServiceParams{
		DB:     dbClient,
		Repo:   entitlements.NewRepository(dbClient.DB()),
		Outbox: outboxService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create entitlement service", err)
		os.Exit(1)
	}

	catalogResolver, err := catalog.NewResolver(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog resolver", err)
		os.Exit(1)
	}

	creatorService, err := creators.NewService(creators.ServiceParams{
		Repo:   creators.NewRepository(dbClient.DB()),
		Stripe: creators.NewStripeClient(stripeClient),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create creator service", err)
		os.Exit(1)
	}

	feePolicy, err := pricing.NewPolicy(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "invalid pricing config", err)
		os.Exit(1)
	}

	checkoutRepo := checkout.NewRepository(dbClient.DB())
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		DB:           dbClient,
		Repo:         checkoutRepo,
		Catalog:      catalogResolver,
		Creators:     creatorService,
		Entitlements: entitlementService,
		Stripe:       checkout.NewStripeClient(stripeClient),
		Outbox:       outboxService,
		Policy:       feePolicy,
		URLs:         cfg.Checkout,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Entitlements: entitlementService,
		Sessions:     checkoutRepo,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency guard", err)
		os.Exit(1)
	}

	reconciler, err := reconcile.NewService(reconcile.ServiceParams{
		Stripe:       reconcile.NewStripeClient(stripeClient),
		Entitlements: entitlementService,
		Logger:       logg,
		Config:       cfg.Reconcile,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	// Bounded handler time: a stalled handler must fail inside the payment
	// provider's webhook retry window, not hold the connection open.
	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			checkoutService,
			entitlementService,
			reconciler,
			stripeClient,
			webhookService,
			webhookGuard,
			webhookMetrics,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
