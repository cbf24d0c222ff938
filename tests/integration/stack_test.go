package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	eventapp "github.com/onixgym/backend/internal/application/event"
	appmembership "github.com/onixgym/backend/internal/application/membership"
	"github.com/onixgym/backend/internal/infrastructure/auth"
	"github.com/onixgym/backend/internal/infrastructure/cache"
	"github.com/onixgym/backend/internal/infrastructure/card"
	"github.com/onixgym/backend/internal/infrastructure/config"
	"github.com/onixgym/backend/internal/infrastructure/event"
	"github.com/onixgym/backend/internal/infrastructure/messaging"
	"github.com/onixgym/backend/internal/infrastructure/persistence"
	"github.com/onixgym/backend/internal/infrastructure/storage"
	"github.com/onixgym/backend/internal/interfaces/http/handler"
	"github.com/onixgym/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// stack is the server wiring of cmd/server over a test database, with an
// in-memory card store and cache.
type stack struct {
	DB          *TestDB
	Logger      *zap.Logger
	Store       *storage.MemoryCardStore
	JWT         *auth.JWTService
	Revocations *auth.RevocationList

	Clients  *persistence.GormClientRepository
	Payments *persistence.GormPaymentRepository
	Cards    *persistence.GormCardRepository
	Outbox   *event.GormOutboxRepository

	Membership *appmembership.MembershipService
	ClientSvc  *appmembership.ClientService
	CardSvc    *appmembership.CardService
	Dashboard  *appmembership.DashboardService
	CardJobs   *eventapp.CardJobService

	bus        *event.InMemoryEventBus
	serializer *event.EventSerializer
	api        *router.API
}

func newStack(t *testing.T) *stack {
	t.Helper()

	testDB := NewTestDB(t)
	log := zaptest.NewLogger(t)

	compositor, err := card.NewCompositor(config.CardConfig{
		TemplatePath: filepath.Join(RepoRoot(), "assets", "carnet_template.png"),
	}, log)
	require.NoError(t, err)

	store := storage.NewMemoryCardStore()
	sharedCache, err := cache.Open(config.RedisConfig{}, cache.FallbackToMemory, log)
	require.NoError(t, err)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "integration-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "onix-gym-test",
	})
	revocations := auth.NewRevocationList(sharedCache, 15*time.Minute)
	links := messaging.NewWhatsAppLinkBuilder("54", "Onix Gym")

	accounts := persistence.NewGormAccountRepository(testDB.DB)
	clients := persistence.NewGormClientRepository(testDB.DB)
	trainers := persistence.NewGormTrainerRepository(testDB.DB)
	payments := persistence.NewGormPaymentRepository(testDB.DB)
	cards := persistence.NewGormCardRepository(testDB.DB)
	stats := persistence.NewGormStatsRepository(testDB.DB)
	outbox := event.NewGormOutboxRepository(testDB.DB)

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	txScope := persistence.NewGormTransactionScope(testDB.DB, event.NewOutboxPublisher(serializer))

	registry := appmembership.NewCardRegistry(cards, clients, compositor, store, "carnets", log)
	s := &stack{
		DB:          testDB,
		Logger:      log,
		Store:       store,
		JWT:         jwtService,
		Revocations: revocations,
		Clients:     clients,
		Payments:    payments,
		Cards:       cards,
		Outbox:      outbox,
		Membership:  appmembership.NewMembershipService(txScope, registry, decimal.NewFromInt(24000), log),
		ClientSvc:   appmembership.NewClientService(clients, trainers, txScope, log),
		CardSvc:     appmembership.NewCardService(cards, clients, store, txScope, links, log),
		Dashboard:   appmembership.NewDashboardService(stats, sharedCache, appmembership.DashboardConfig{}, log),
		CardJobs:    eventapp.NewCardJobService(outbox, log),
		serializer:  serializer,
	}
	s.ClientSvc.SetSessionRevoker(revocations)

	s.bus = event.NewInMemoryEventBus(log)
	s.bus.Subscribe(appmembership.NewCardRenderHandler(registry, log))
	s.bus.Subscribe(appmembership.NewDashboardCacheInvalidator(s.Dashboard, log))

	authService := appmembership.NewAuthService(accounts, jwtService, revocations, log)
	s.api = router.New(router.Config{
		ServiceName: "onix-gym-test",
		JWTService:  jwtService,
		Revocations: revocations,
		Logger:      log,
	}, router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Client:       handler.NewClientHandler(s.Membership, s.ClientSvc, appmembership.NewPaymentService(payments, clients)),
		Card:         handler.NewCardHandler(s.CardSvc),
		Payment:      handler.NewPaymentHandler(s.Membership, appmembership.NewPaymentService(payments, clients)),
		Trainer:      handler.NewTrainerHandler(appmembership.NewTrainerService(trainers)),
		Dashboard:    handler.NewDashboardHandler(s.Dashboard),
		Notification: handler.NewNotificationHandler(appmembership.NewNotificationService(clients, links, 3, log)),
		CardJob:      handler.NewCardJobHandler(s.CardJobs),
		System:       handler.NewSystemHandler("Onix Gym API", "test", testDB.SqlDB),
	})
	t.Cleanup(s.api.Close)
	return s
}

// startOutbox runs the outbox processor until the test ends
func (s *stack) startOutbox(t *testing.T) {
	t.Helper()

	processor := event.NewOutboxProcessor(s.Outbox, s.bus, s.serializer, event.OutboxProcessorConfig{
		BatchSize:    20,
		PollInterval: 50 * time.Millisecond,
	}, s.Logger)
	require.NoError(t, processor.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = processor.Stop(ctx)
	})
}
