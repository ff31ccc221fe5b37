package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/minhdn/cuestore/internal"
	"github.com/minhdn/cuestore/internal/carrier"
	"github.com/minhdn/cuestore/internal/events"
	"github.com/minhdn/cuestore/internal/handler/api"
	"github.com/minhdn/cuestore/internal/middleware"
	"github.com/minhdn/cuestore/internal/postgres"
	"github.com/minhdn/cuestore/internal/promotion"
	"github.com/minhdn/cuestore/internal/region"
	"github.com/minhdn/cuestore/internal/router"
	"github.com/minhdn/cuestore/internal/routes"
	"github.com/minhdn/cuestore/internal/service"
	"github.com/minhdn/cuestore/internal/shipping"
	"github.com/minhdn/cuestore/internal/telemetry"
	"github.com/minhdn/cuestore/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Run migrations over database/sql
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Application connection pool (registers the decimal codec)
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Stores
	userStore := postgres.NewUserStore(pool)
	addressStore := postgres.NewAddressStore(pool)
	productStore := postgres.NewProductStore(pool)
	cartStore := postgres.NewCartStore(pool)
	orderStore := postgres.NewOrderStore(pool)
	promotionStore := postgres.NewPromotionStore(pool)
	regionStore := postgres.NewRegionStore(pool)
	shipmentStore := postgres.NewShipmentStore(pool)

	// Carrier gateway
	logger.Info("Initializing carrier gateway...")
	gateway, err := carrier.NewGHNClient(carrier.GHNConfig{
		BaseURL: cfg.GHN.BaseURL,
		Token:   cfg.GHN.Token,
		ShopID:  cfg.GHN.ShopID,
		Timeout: cfg.GHN.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize carrier gateway: %w", err)
	}
	logger.Info("Carrier gateway initialized", "carrier", gateway.Name())

	// Region mapper and fee calculator
	mapper := region.NewMapper(regionStore, logger)
	origin := shipping.ShopOrigin{
		DistrictID: cfg.GHN.ShopDistrictID,
		WardCode:   cfg.GHN.ShopWardCode,
	}
	feeCalculator := shipping.NewFeeCalculator(gateway, mapper, origin, logger)

	// Promotion evaluator
	evaluator := promotion.NewEvaluator(promotionStore, logger)

	// Order event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		logger.Info("Connecting to NATS...", "url", cfg.NATS.URL)
		natsPublisher, err := events.NewNATSPublisher(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	} else {
		logger.Info("No NATS URL configured, order events disabled")
	}

	// Services
	logger.Info("Initializing services...")
	cartService := service.NewCartService(cartStore, productStore, logger)
	addressService := service.NewAddressService(addressStore, orderStore, logger)
	inventoryService := service.NewInventoryService(productStore, logger)
	shipmentService := service.NewShipmentService(
		gateway,
		shipmentStore,
		orderStore,
		addressStore,
		productStore,
		mapper,
		service.ShopInfo{
			Name:    cfg.GHN.ShopName,
			Phone:   cfg.GHN.ShopPhone,
			Address: cfg.GHN.ShopAddress,
			Origin:  origin,
		},
		logger,
	)
	orderService := service.NewOrderService(
		orderStore,
		addressStore,
		userStore,
		promotionStore,
		cartService,
		feeCalculator,
		evaluator,
		inventoryService,
		shipmentService,
		publisher,
		logger,
	)
	logger.Info("Services initialized")

	// Metrics
	httpMetrics := middleware.NewMetrics("cuestore")
	checkoutMetrics := telemetry.InitCheckoutMetrics("cuestore")

	// Rate limiting
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())

	// Routers: ops routes stay open, the API group requires a caller identity
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		httpMetrics.Middleware,
		router.Logger(logger),
	)

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		MetricsHandler: httpMetrics.Handler(),
		Healthz: func(w http.ResponseWriter, req *http.Request) {
			if err := pool.Ping(req.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		},
	})

	apiRouter := r.Group(
		rateLimiter.Middleware,
		middleware.RequireUser,
		middleware.WithRequestLogger(logger),
	)
	routes.RegisterAPIRoutes(apiRouter, routes.APIDeps{
		CartHandler:     api.NewCartHandler(cartService),
		AddressHandler:  api.NewAddressHandler(addressService),
		OrderHandler:    api.NewOrderHandler(orderService, checkoutMetrics),
		ShipmentHandler: api.NewShipmentHandler(shipmentService, orderService),
	})

	// Background workers share the server's shutdown context
	shipmentSync := worker.NewShipmentSyncWorker(shipmentService, checkoutMetrics, worker.ShipmentSyncConfig{
		Interval:  cfg.Worker.ShipmentSyncInterval,
		BatchSize: cfg.Worker.ShipmentSyncBatch,
	}, logger)
	go shipmentSync.Start(ctx)

	regionSync := worker.NewRegionSyncWorker(gateway, regionStore, checkoutMetrics, worker.RegionSyncConfig{
		RefreshInterval: cfg.Worker.RegionRefreshInterval,
		Force:           cfg.Worker.RegionSyncForce,
	}, logger)
	go regionSync.Start(ctx)

	// HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server stopped")

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
