package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/atelierhq/atelier-backend/api/routes"
	"github.com/atelierhq/atelier-backend/internal/cart"
	checkoutsvc "github.com/atelierhq/atelier-backend/internal/checkout"
	"github.com/atelierhq/atelier-backend/internal/customers"
	"github.com/atelierhq/atelier-backend/internal/deliveries"
	"github.com/atelierhq/atelier-backend/internal/invoices"
	"github.com/atelierhq/atelier-backend/internal/stock"
	"github.com/atelierhq/atelier-backend/internal/workshops"
	"github.com/atelierhq/atelier-backend/pkg/config"
	"github.com/atelierhq/atelier-backend/pkg/db"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/metrics"
	"github.com/atelierhq/atelier-backend/pkg/migrate"
	"github.com/atelierhq/atelier-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	fulfillmentMetrics := metrics.NewFulfillmentMetrics(registry)

	gormDB := dbClient.DB()
	stockRepo := stock.NewRepository(gormDB)
	productRepo := stock.NewProductRepository(gormDB)
	customerRepo := customers.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	checkoutRepo := checkoutsvc.NewRepository(gormDB)
	workshopRepo := workshops.NewRepository(gormDB)
	deliveryRepo := deliveries.NewRepository(gormDB)
	invoiceRepo := invoices.NewRepository(gormDB)

	stockSvc, err := stock.NewService(dbClient, stockRepo, fulfillmentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}
	cartSvc, err := cart.NewService(dbClient, cartRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	checkoutService, err := checkoutsvc.NewService(dbClient, checkoutRepo, cartRepo, invoiceRepo, customerRepo, fulfillmentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}
	deliverySvc, err := deliveries.NewService(dbClient, deliveryRepo, stockSvc, productRepo, customerRepo, fulfillmentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery service", err)
		os.Exit(1)
	}
	workshopSvc, err := workshops.NewService(dbClient, workshopRepo, stockRepo, deliverySvc, invoiceRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create workshop service", err)
		os.Exit(1)
	}
	invoiceSvc, err := invoices.NewService(dbClient, invoiceRepo, fulfillmentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Stock:      stockSvc,
			Cart:       cartSvc,
			Checkout:   checkoutService,
			Workshops:  workshopSvc,
			Deliveries: deliverySvc,
			Invoices:   invoiceSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
