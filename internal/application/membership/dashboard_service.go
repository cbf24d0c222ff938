package membership

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const dashboardKeyPrefix = "dashboard:summary:"

// DashboardConfig tunes the dashboard queries and cache
type DashboardConfig struct {
	RecentLimit  int
	OverdueLimit int
	IncomeMonths int
	CacheTTL     time.Duration
}

// DashboardService builds the staff overview. Results are cached per day
// and dropped whenever a client or payment changes.
type DashboardService struct {
	stats  membership.StatsRepository
	cache  Cache
	cfg    DashboardConfig
	clock  Clock
	logger *zap.Logger
}

// NewDashboardService creates a new dashboard service. cache may be nil.
func NewDashboardService(stats membership.StatsRepository, cache Cache, cfg DashboardConfig, logger *zap.Logger) *DashboardService {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if cfg.OverdueLimit <= 0 {
		cfg.OverdueLimit = 10
	}
	if cfg.IncomeMonths <= 0 {
		cfg.IncomeMonths = 6
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		stats:  stats,
		cache:  cache,
		cfg:    cfg,
		clock:  time.Now,
		logger: logger,
	}
}

// SetClock replaces the time source
func (s *DashboardService) SetClock(clock Clock) {
	s.clock = clock
}

func (s *DashboardService) cacheKey(today time.Time) string {
	return dashboardKeyPrefix + today.Format(DateLayout)
}

// Summary returns the dashboard for today
func (s *DashboardService) Summary(ctx context.Context) (*DashboardResponse, error) {
	now := s.clock()
	today := membership.DateOf(now)
	key := s.cacheKey(today)

	if s.cache != nil {
		raw, found, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("Dashboard cache read failed", zap.Error(err))
		case found:
			var cached DashboardResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
			s.logger.Warn("Discarding undecodable dashboard cache entry", zap.String("key", key))
		}
	}

	summary, err := s.build(ctx, now)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		raw, err := json.Marshal(summary)
		if err == nil {
			err = s.cache.Set(ctx, key, raw, s.cfg.CacheTTL)
		}
		if err != nil {
			s.logger.Warn("Dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

func (s *DashboardService) build(ctx context.Context, now time.Time) (*DashboardResponse, error) {
	counts, err := s.stats.CountByStatus(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}

	recent, err := s.stats.RecentClients(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent clients: %w", err)
	}

	overdue, err := s.stats.OverdueClients(ctx, now, s.cfg.OverdueLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load overdue clients: %w", err)
	}

	income, err := s.stats.MonthlyIncome(ctx, s.cfg.IncomeMonths)
	if err != nil {
		return nil, fmt.Errorf("failed to sum monthly income: %w", err)
	}

	resp := &DashboardResponse{
		Counts:        counts,
		RecentClients: make([]ClientSummary, 0, len(recent)),
		Overdue:       make([]OverdueClient, 0, len(overdue)),
		MonthlyIncome: make([]IncomeEntry, 0, len(income)),
		GeneratedAt:   now,
	}
	for _, c := range recent {
		resp.RecentClients = append(resp.RecentClients, toClientSummary(c, now))
	}
	for _, c := range overdue {
		days := 0
		if c.ExpirationDate != nil {
			days = -membership.DaysUntil(*c.ExpirationDate, now)
		}
		resp.Overdue = append(resp.Overdue, OverdueClient{
			ClientSummary: toClientSummary(c, now),
			DaysOverdue:   days,
		})
	}
	for _, m := range income {
		resp.MonthlyIncome = append(resp.MonthlyIncome, IncomeEntry{
			Period:   m.Period.Key(),
			Month:    m.Period.Month,
			Year:     m.Period.Year,
			Total:    m.Total,
			Payments: m.Payments,
		})
	}
	return resp, nil
}

// Invalidate drops today's cached dashboard
func (s *DashboardService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, s.cacheKey(membership.DateOf(s.clock())))
}

// DashboardCacheInvalidator drops the cached dashboard when the outbox
// delivers a membership change.
type DashboardCacheInvalidator struct {
	dashboard *DashboardService
	logger    *zap.Logger
}

// NewDashboardCacheInvalidator creates the handler
func NewDashboardCacheInvalidator(dashboard *DashboardService, logger *zap.Logger) *DashboardCacheInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardCacheInvalidator{dashboard: dashboard, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *DashboardCacheInvalidator) EventTypes() []string {
	return []string{
		membership.EventTypeClientRegistered,
		membership.EventTypePaymentRegistered,
		membership.EventTypePaymentVoided,
	}
}

// Handle drops the cache entry
func (h *DashboardCacheInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	if err := h.dashboard.Invalidate(ctx); err != nil {
		h.logger.Warn("failed to invalidate dashboard cache",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

var _ shared.EventHandler = (*DashboardCacheInvalidator)(nil)
