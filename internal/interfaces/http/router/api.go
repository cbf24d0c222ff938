package router

import (
	"github.com/gin-gonic/gin"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/infrastructure/auth"
	"github.com/onixgym/backend/internal/infrastructure/config"
	"github.com/onixgym/backend/internal/infrastructure/logger"
	"github.com/onixgym/backend/internal/infrastructure/telemetry"
	"github.com/onixgym/backend/internal/interfaces/http/handler"
	"github.com/onixgym/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// APIPrefix is the versioned prefix of every JSON route
const APIPrefix = "/api/v1"

// Handlers bundles the HTTP handlers served by the API
type Handlers struct {
	Auth         *handler.AuthHandler
	Client       *handler.ClientHandler
	Card         *handler.CardHandler
	Payment      *handler.PaymentHandler
	Trainer      *handler.TrainerHandler
	Dashboard    *handler.DashboardHandler
	Notification *handler.NotificationHandler
	CardJob      *handler.CardJobHandler
	System       *handler.SystemHandler
}

// Config carries what the middleware chain needs
type Config struct {
	ServiceName   string
	HTTP          config.HTTPConfig
	JWTService    *auth.JWTService
	Revocations   *auth.RevocationList
	MeterProvider *telemetry.MeterProvider
	Tracing       bool
	Profiling     bool
	// UploadsDir is served at /uploads when the local card store is used
	UploadsDir string
	Logger     *zap.Logger
}

// API is the configured gin engine of the gym backend
type API struct {
	engine     *gin.Engine
	loginGuard []gin.HandlerFunc
	groups     []*DomainGroup
}

// New builds the engine: global middleware, the unauthenticated health and
// upload routes, and every /api/v1 route behind JWT auth and role checks.
func New(cfg Config, h Handlers) *API {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
			_ = engine.SetTrustedProxies(nil)
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(
		middleware.RequestID(),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.ServiceName,
			Enabled:     cfg.Tracing,
			Filter:      middleware.DefaultTracingConfig(cfg.ServiceName).Filter,
		}),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORS(middleware.CORSConfigFromHTTP(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: cfg.MeterProvider,
			Enabled:       cfg.MeterProvider != nil && cfg.MeterProvider.IsEnabled(),
			Logger:        log,
		}),
	)

	api := &API{engine: engine}
	if cfg.HTTP.RateLimitEnabled {
		api.loginGuard = append(api.loginGuard, middleware.RateLimit(middleware.RateLimitConfig{
			Requests: cfg.HTTP.RateLimitRequests,
			Window:   cfg.HTTP.RateLimitWindow,
			Logger:   log,
		}))
	}

	engine.GET("/health", h.System.Health)
	if cfg.UploadsDir != "" {
		engine.Static("/uploads", cfg.UploadsDir)
	}

	jwtConfig := middleware.DefaultJWTConfig(cfg.JWTService)
	jwtConfig.Revocations = cfg.Revocations
	jwtConfig.Logger = log

	v1 := engine.Group(APIPrefix,
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.ProfilingWithConfig(middleware.ProfilingConfig{Enabled: cfg.Profiling}),
	)
	api.groups = api.domainGroups(h)
	for _, group := range api.groups {
		group.RegisterRoutes(v1)
	}

	return api
}

func (a *API) domainGroups(h Handlers) []*DomainGroup {
	admin := string(membership.RoleAdmin)
	trainer := string(membership.RoleTrainer)
	staff := middleware.RequireRoles(admin, trainer)
	adminOnly := middleware.RequireRoles(admin)
	selfOrStaff := middleware.RequireSelfOrRoles("id", admin, trainer)

	authGroup := NewDomainGroup("auth", "/auth")
	authGroup.POST("/login", append(a.loginGuard, h.Auth.Login)...)
	authGroup.POST("/logout", h.Auth.Logout)
	authGroup.GET("/me", h.Auth.Me)

	clients := NewDomainGroup("clients", "/clients")
	clients.POST("", staff, h.Client.Register)
	clients.GET("", staff, h.Client.List)
	clients.GET("/:id", selfOrStaff, h.Client.GetByID)
	clients.PUT("/:id", staff, h.Client.Update)
	clients.DELETE("/:id", adminOnly, h.Client.Deactivate)
	clients.GET("/:id/payments", selfOrStaff, h.Client.ListPayments)
	clients.GET("/:id/card", selfOrStaff, h.Card.Get)
	clients.GET("/:id/card/image", selfOrStaff, h.Card.Image)
	clients.POST("/:id/card/regenerate", staff, h.Card.Regenerate)
	clients.GET("/:id/card/whatsapp", staff, h.Card.WhatsApp)

	payments := NewDomainGroup("payments", "/payments").Use(staff)
	payments.POST("", h.Payment.Register)
	payments.GET("", h.Payment.List)
	payments.GET("/:id", h.Payment.GetByID)
	payments.POST("/:id/void", h.Payment.Void)

	trainers := NewDomainGroup("trainers", "/trainers")
	trainers.GET("", h.Trainer.List)

	dashboard := NewDomainGroup("dashboard", "/dashboard").Use(staff)
	dashboard.GET("", h.Dashboard.Summary)

	notifications := NewDomainGroup("notifications", "/notifications").Use(staff)
	notifications.GET("/expirations", h.Notification.Expirations)

	adminGroup := NewDomainGroup("admin", "/admin").Use(adminOnly)
	jobs := adminGroup.Group("card-jobs", "/card-jobs")
	jobs.GET("/dead", h.CardJob.ListDead)
	jobs.POST("/dead/retry-all", h.CardJob.RetryAll)
	jobs.GET("/stats", h.CardJob.Stats)
	jobs.GET("/:id", h.CardJob.Get)
	jobs.POST("/:id/retry", h.CardJob.Retry)
	adminGroup.GET("/system/info", h.System.GetSystemInfo)

	return []*DomainGroup{authGroup, clients, payments, trainers, dashboard, notifications, adminGroup}
}

// Engine returns the configured gin engine
func (a *API) Engine() *gin.Engine {
	return a.engine
}

// Routes lists every /api/v1 route, for startup logging
func (a *API) Routes() []RouteInfo {
	var out []RouteInfo
	for _, group := range a.groups {
		for _, r := range group.Routes() {
			out = append(out, RouteInfo{Method: r.Method, Path: APIPrefix + r.Path})
		}
	}
	return out
}
