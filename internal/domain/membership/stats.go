package membership

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StatusCounts tallies active clients by derived status
type StatusCounts struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Expiring int64 `json:"expiring"`
	Expired  int64 `json:"expired"`
}

// MonthlyIncome is the sum of paid rows for one period
type MonthlyIncome struct {
	Period   Period          `json:"period"`
	Total    decimal.Decimal `json:"total"`
	Payments int64           `json:"payments"`
}

// StatsRepository answers the dashboard's aggregate queries
type StatsRepository interface {
	// CountByStatus classifies active clients on the given day
	CountByStatus(ctx context.Context, today time.Time) (StatusCounts, error)

	// RecentClients returns the newest active clients
	RecentClients(ctx context.Context, limit int) ([]*Client, error)

	// OverdueClients returns active clients whose expiration is before today,
	// longest overdue first
	OverdueClients(ctx context.Context, today time.Time, limit int) ([]*Client, error)

	// MonthlyIncome sums paid rows per period, newest period first
	MonthlyIncome(ctx context.Context, months int) ([]MonthlyIncome, error)
}
