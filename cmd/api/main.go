package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/caremesh/caremesh-backend/api/routes"
	"github.com/caremesh/caremesh-backend/internal/audit"
	"github.com/caremesh/caremesh-backend/internal/checkout"
	"github.com/caremesh/caremesh-backend/internal/clinics"
	"github.com/caremesh/caremesh-backend/internal/fees"
	"github.com/caremesh/caremesh-backend/internal/ledger"
	"github.com/caremesh/caremesh-backend/internal/orders"
	"github.com/caremesh/caremesh-backend/internal/products"
	"github.com/caremesh/caremesh-backend/internal/refunds"
	"github.com/caremesh/caremesh-backend/internal/users"
	"github.com/caremesh/caremesh-backend/pkg/config"
	"github.com/caremesh/caremesh-backend/pkg/db"
	"github.com/caremesh/caremesh-backend/pkg/enums"
	"github.com/caremesh/caremesh-backend/pkg/env"
	"github.com/caremesh/caremesh-backend/pkg/logger"
	"github.com/caremesh/caremesh-backend/pkg/metrics"
	"github.com/caremesh/caremesh-backend/pkg/migrate"
	"github.com/caremesh/caremesh-backend/pkg/outbox"
	"github.com/caremesh/caremesh-backend/pkg/stripe"
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

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
		os.Exit(1)
	}
	gateway := stripe.NewGateway(stripeClient)

	feeDefaults, err := fees.ParseDefaults(cfg.Fees)
	if err != nil {
		logg.Error(context.Background(), "failed to parse fee defaults", err)
		os.Exit(1)
	}

	auditRecorder, err := audit.NewRecorder(dbClient.DB(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit recorder", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	ordersRepo := orders.NewRepository(dbClient.DB())
	clinicsRepo := clinics.NewRepository(dbClient.DB())

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:          dbClient,
		OrdersRepo:  ordersRepo,
		ClinicsRepo: clinicsRepo,
		ProductRepo: products.NewRepository(dbClient.DB()),
		UsersRepo:   users.NewRepository(dbClient.DB()),
		Gateway:     gateway,
		FeeDefaults: feeDefaults,
		Currency:    enums.Currency(cfg.Fees.Currency),
		Audit:       auditRecorder,
		Outbox:      outboxService,
		Metrics:     paymentMetrics,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	refundService, err := refunds.NewService(refunds.ServiceParams{
		Tx:                dbClient,
		Repo:              refunds.NewRepository(dbClient.DB()),
		OrdersRepo:        ordersRepo,
		ClinicsRepo:       clinicsRepo,
		Ledger:            ledgerService,
		Gateway:           gateway,
		Currency:          enums.Currency(cfg.Fees.Currency),
		PlatformAccountID: cfg.Stripe.PlatformAccountID,
		Outbox:            outboxService,
		Metrics:           paymentMetrics,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create refund service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	id := env.Get("DYNO", "local")
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, checkoutService, refundService, ledgerService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
