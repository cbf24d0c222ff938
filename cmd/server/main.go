package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	eventapp "github.com/onixgym/backend/internal/application/event"
	appmembership "github.com/onixgym/backend/internal/application/membership"
	"github.com/onixgym/backend/internal/infrastructure/auth"
	"github.com/onixgym/backend/internal/infrastructure/cache"
	"github.com/onixgym/backend/internal/infrastructure/card"
	"github.com/onixgym/backend/internal/infrastructure/config"
	"github.com/onixgym/backend/internal/infrastructure/event"
	"github.com/onixgym/backend/internal/infrastructure/logger"
	"github.com/onixgym/backend/internal/infrastructure/messaging"
	"github.com/onixgym/backend/internal/infrastructure/migration"
	"github.com/onixgym/backend/internal/infrastructure/persistence"
	"github.com/onixgym/backend/internal/infrastructure/storage"
	"github.com/onixgym/backend/internal/infrastructure/telemetry"
	"github.com/onixgym/backend/internal/interfaces/http/handler"
	"github.com/onixgym/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

const meterName = "github.com/onixgym/backend"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeLayout,
	}

	// Bootstrap logger, used until the OTLP log pipeline exists
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	providers, err := telemetry.Setup(context.Background(), cfg.Telemetry, version, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	log, err := logger.New(logCfg, telemetry.NewZapCore(cfg.Telemetry.ServiceName, providers.Logs, logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	_ = bootLog.Sync()
	defer func() {
		_ = logger.Sync(log)
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log.Info("Starting Onix Gym backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	defaultFee, err := decimal.NewFromString(cfg.Membership.DefaultFee)
	if err != nil {
		log.Fatal("Invalid membership.default_fee", zap.String("value", cfg.Membership.DefaultFee), zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.GormConfig{
		Level:         cfg.Log.Level,
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	})
	db, err := persistence.Open(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", db.DB.Dialector.Name()))

	dbInstrumentation, err := telemetry.NewDBInstrumentation(cfg.Telemetry, providers.Meter.Meter(meterName), log)
	if err != nil {
		log.Fatal("Failed to create database instrumentation", zap.Error(err))
	}
	if err := db.DB.Use(dbInstrumentation); err != nil {
		log.Fatal("Failed to register database instrumentation", zap.Error(err))
	}
	defer func() {
		_ = dbInstrumentation.Close()
	}()

	sqlDB, err := db.SQL()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	if err := prepareSchema(cfg, db, log); err != nil {
		log.Fatal("Failed to prepare schema", zap.Error(err))
	}

	// Cache, tokens and revocation
	sharedCache, err := cache.Open(cfg.Redis, cache.FallbackToMemory, log)
	if err != nil {
		log.Fatal("Failed to create cache", zap.Error(err))
	}
	if closer, ok := sharedCache.(io.Closer); ok {
		defer func() {
			_ = closer.Close()
		}()
	}
	jwtService := auth.NewJWTService(cfg.JWT)
	revocations := auth.NewRevocationList(sharedCache, cfg.JWT.AccessTokenExpiration)

	// Card pipeline
	cardStore, err := storage.NewCardStore(&cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to create card store", zap.Error(err))
	}
	compositor, err := card.NewCompositor(cfg.Card, log.Named("card"))
	if err != nil {
		log.Fatal("Failed to create card compositor", zap.Error(err))
	}
	links := messaging.NewWhatsAppLinkBuilder(cfg.Membership.CountryCode, cfg.Card.GymName)

	// Repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	trainerRepo := persistence.NewGormTrainerRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	cardRepo := persistence.NewGormCardRepository(db.DB)
	statsRepo := persistence.NewGormStatsRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Events are written to the outbox in the same transaction as the ledger
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	txScope := persistence.NewGormTransactionScope(db.DB, outboxPublisher)

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:          providers.Meter.Meter(meterName),
		Logger:         log,
		StatusProvider: statsRepo,
	})
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	if providers.Meter.IsEnabled() {
		businessMetrics.StartPeriodicCollection(context.Background(), time.Minute)
	}
	defer businessMetrics.Stop()

	// Application services
	cardRegistry := appmembership.NewCardRegistry(cardRepo, clientRepo, compositor, cardStore, cfg.Card.KeyPrefix, log)
	cardRegistry.SetBusinessMetrics(businessMetrics)

	membershipService := appmembership.NewMembershipService(txScope, cardRegistry, defaultFee, log)
	membershipService.SetBusinessMetrics(businessMetrics)
	authService := appmembership.NewAuthService(accountRepo, jwtService, revocations, log)
	clientService := appmembership.NewClientService(clientRepo, trainerRepo, txScope, log)
	clientService.SetSessionRevoker(revocations)
	paymentService := appmembership.NewPaymentService(paymentRepo, clientRepo)
	trainerService := appmembership.NewTrainerService(trainerRepo)
	cardService := appmembership.NewCardService(cardRepo, clientRepo, cardStore, txScope, links, log)
	dashboardService := appmembership.NewDashboardService(statsRepo, sharedCache, appmembership.DashboardConfig{
		RecentLimit: cfg.Membership.RecentLimit,
		CacheTTL:    cfg.Redis.StatsTTL,
	}, log)
	notificationService := appmembership.NewNotificationService(clientRepo, links, cfg.Membership.ReminderWindowDays, log)
	cardJobService := eventapp.NewCardJobService(outboxRepo, log)

	// Outbox handlers: card rendering and dashboard invalidation
	eventBus := event.NewInMemoryEventBus(log)
	cardRenderHandler := appmembership.NewCardRenderHandler(cardRegistry, log)
	dashboardInvalidator := appmembership.NewDashboardCacheInvalidator(dashboardService, log)
	eventBus.Subscribe(cardRenderHandler)
	eventBus.Subscribe(dashboardInvalidator)
	log.Info("Event handlers registered",
		zap.Strings("card_render_events", cardRenderHandler.EventTypes()),
		zap.Strings("dashboard_events", dashboardInvalidator.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if cfg.Event.ProcessorEnabled {
		processorConfig := event.OutboxProcessorConfigFrom(cfg.Event)
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := outboxProcessor.Stop(ctx); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
	} else {
		log.Warn("Outbox processor disabled, cards will not be rendered by this instance")
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var uploadsDir string
	if local, ok := cardStore.(*storage.LocalCardStore); ok {
		uploadsDir = local.Root()
	}

	api := router.New(router.Config{
		ServiceName:   cfg.Telemetry.ServiceName,
		HTTP:          cfg.HTTP,
		JWTService:    jwtService,
		Revocations:   revocations,
		MeterProvider: providers.Meter,
		Tracing:       providers.Tracer.IsEnabled(),
		Profiling:     providers.Profiler.IsEnabled(),
		UploadsDir:    uploadsDir,
		Logger:        log,
	}, router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Client:       handler.NewClientHandler(membershipService, clientService, paymentService),
		Card:         handler.NewCardHandler(cardService),
		Payment:      handler.NewPaymentHandler(membershipService, paymentService),
		Trainer:      handler.NewTrainerHandler(trainerService),
		Dashboard:    handler.NewDashboardHandler(dashboardService),
		Notification: handler.NewNotificationHandler(notificationService),
		CardJob:      handler.NewCardJobHandler(cardJobService),
		System:       handler.NewSystemHandler(cfg.App.Name, version, sqlDB),
	})

	for _, r := range api.Routes() {
		log.Debug("Route registered", zap.String("method", r.Method), zap.String("path", r.Path))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        api.Engine(),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// prepareSchema creates the sqlite schema from the models, or applies the
// SQL migrations to PostgreSQL when database.auto_migrate is set.
func prepareSchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if !persistence.IsPostgres(db.DB) {
		log.Info("Creating sqlite schema from models")
		return db.AutoMigrate()
	}
	if !cfg.Database.AutoMigrate {
		return nil
	}
	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	return migration.ApplyUp(sqlDB, cfg.Database.MigrationsPath, log)
}
