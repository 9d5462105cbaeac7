package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/application/catalogimport"
	"github.com/marketplace/backend/internal/application/checkout"
	paymentapp "github.com/marketplace/backend/internal/application/payment"
	"github.com/marketplace/backend/internal/domain/order"
	paymentdomain "github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/csvimport"
	"github.com/marketplace/backend/internal/infrastructure/event"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/payment"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/storage"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

//	@title			Marketplace Backend API
//	@version		1.0
//	@description	Multi-vendor marketplace: catalog import, cart, checkout and payments

//	@contact.name	API Support
//	@contact.url	https://github.com/marketplace/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.ForEnvironment(cfg.App.Env, cfg.Log.Level, cfg.Log.Output)
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	log := logger.New(logCfg)
	defer func() { _ = log.Sync() }()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting marketplace backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
	log.Info("Server exited")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	meters, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := meters.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry, db.Driver), log)
	if err := dbTracing.Register(db.DB); err != nil {
		return err
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meters, telemetry.DBMetricsConfigFrom(cfg.Telemetry), log)
	if err != nil {
		return err
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	businessMetrics, err := telemetry.NewBusinessMetrics(meters.Meter(telemetry.TracerName), log)
	if err != nil {
		return err
	}

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.LoggingHandler{})
	if cfg.Event.KafkaEnabled {
		forwarder, err := event.NewKafkaForwarder(cfg.Event, log)
		if err != nil {
			return err
		}
		defer func() { _ = forwarder.Close() }()
		bus.Subscribe(forwarder)
		log.Info("Forwarding domain events to Kafka",
			zap.Strings("brokers", cfg.Event.KafkaBrokers),
			zap.String("topic", cfg.Event.KafkaTopic))
	}
	if err := bus.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = bus.Stop(context.Background()) }()

	idempotency, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = idempotency.Close() }()

	uploads, err := storage.NewUploadStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	gateway, err := payment.NewGateway(cfg.Payment, log)
	if err != nil {
		return err
	}

	app, err := newServices(cfg, db, bus, idempotency, uploads, gateway, businessMetrics, log)
	if err != nil {
		return err
	}

	tokens := auth.NewJWTService(cfg.JWT)
	engine, err := router.New(router.Options{
		Logger:    log,
		HTTP:      cfg.HTTP,
		Telemetry: cfg.Telemetry,
		Tokens:    tokens,
		Swagger:   cfg.HTTP.SwaggerEnabled,
	}, router.Handlers{
		Health:   handler.NewHealthHandler(db),
		Checkout: handler.NewCheckoutHandler(app.checkout),
		Cart:     handler.NewCartHandler(app.checkout),
		Payment:  handler.NewPaymentHandler(app.payment),
		Import:   handler.NewImportHandler(app.catalog, uploads, cfg.HTTP.MaxUploadSize),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-serveErr
}

type services struct {
	checkout *checkout.Service
	payment  *paymentapp.Service
	catalog  *catalogimport.Service
}

func newServices(
	cfg *config.Config,
	db *persistence.Database,
	events shared.EventPublisher,
	idempotency shared.IdempotencyStore,
	uploads storage.UploadStore,
	gateway paymentdomain.Gateway,
	metrics *telemetry.BusinessMetrics,
	log *zap.Logger,
) (*services, error) {
	policy := order.PricingPolicy{
		VATRate:               cfg.Checkout.VATRate,
		FreeShippingThreshold: cfg.Checkout.FreeShippingThreshold,
		ShippingFee:           cfg.Checkout.ShippingFee,
		Currency:              cfg.Checkout.Currency,
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	uow := persistence.NewGormUnitOfWork(db.DB,
		persistence.WithTimeout(cfg.Checkout.Timeout),
		persistence.WithLockTimeout(cfg.Checkout.LockTimeout),
		persistence.WithMaxRetries(cfg.Checkout.MaxRetries),
		persistence.WithUnitOfWorkLogger(log),
	)

	users := persistence.NewGormUserRepository(db.DB)
	orders := persistence.NewGormOrderRepository(db.DB)
	products := persistence.NewGormProductRepository(db.DB)
	variants := persistence.NewGormVariantRepository(db.DB)

	checkoutSvc := checkout.NewService(uow, checkout.Repositories{
		Orders:    orders,
		Cart:      persistence.NewGormCartRepository(db.DB),
		Products:  products,
		Variants:  variants,
		Addresses: persistence.NewGormAddressRepository(db.DB),
	}, policy, checkout.Config{
		OrderNumberAttempts: cfg.Checkout.OrderNumberAttempts,
		IdempotencyTTL:      cfg.Checkout.IdempotencyTTL,
	},
		checkout.WithIdempotencyStore(idempotency),
		checkout.WithEventPublisher(events),
		checkout.WithBusinessMetrics(metrics),
	)

	paymentSvc := paymentapp.NewService(uow, paymentapp.Repositories{
		Orders:   orders,
		Payments: persistence.NewGormPaymentRepository(db.DB),
		Users:    users,
	}, gateway, events, cfg.Payment.CallbackURL)
	paymentSvc.SetBusinessMetrics(metrics)

	catalogSvc := catalogimport.NewService(catalogimport.Repositories{
		Users:      users,
		Vendors:    persistence.NewGormVendorRepository(db.DB),
		Categories: persistence.NewGormCategoryRepository(db.DB),
		Products:   products,
		Variants:   variants,
		Images:     persistence.NewGormImageRepository(db.DB),
	}, uploads, csvimport.NewCatalogParser(csvimport.WithPriceExponent(cfg.Import.PriceExponent)), events, catalogimport.Config{
		DefaultStock: cfg.Import.DefaultStock,
		MaxErrors:    cfg.Import.MaxErrors,
	})
	catalogSvc.SetBusinessMetrics(metrics)

	return &services{checkout: checkoutSvc, payment: paymentSvc, catalog: catalogSvc}, nil
}
