package persistence

import (
	"context"
	"time"

	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStatsRepository implements membership.StatsRepository
type GormStatsRepository struct {
	db *gorm.DB
}

// NewGormStatsRepository creates a new GormStatsRepository
func NewGormStatsRepository(db *gorm.DB) *GormStatsRepository {
	return &GormStatsRepository{db: db}
}

// CountByStatus classifies every active client in one pass. The date bounds
// come from ExpirationWindow so the counts agree with DeriveStatus.
func (r *GormStatsRepository) CountByStatus(ctx context.Context, today time.Time) (membership.StatusCounts, error) {
	activeFrom, _ := membership.ExpirationWindow(membership.StatusActive, today)
	expiringFrom, expiringTo := membership.ExpirationWindow(membership.StatusExpiring, today)
	_, expiredTo := membership.ExpirationWindow(membership.StatusInactive, today)

	var counts membership.StatusCounts
	err := r.db.WithContext(ctx).
		Model(&models.ClientModel{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN fecha_vencimiento >= ? THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN fecha_vencimiento BETWEEN ? AND ? THEN 1 ELSE 0 END), 0) AS expiring,
			COALESCE(SUM(CASE WHEN fecha_vencimiento IS NULL OR fecha_vencimiento <= ? THEN 1 ELSE 0 END), 0) AS expired`,
			*activeFrom, *expiringFrom, *expiringTo, *expiredTo).
		Where("activo = ?", true).
		Scan(&counts).Error
	return counts, err
}

// RecentClients returns the newest active clients
func (r *GormStatsRepository) RecentClients(ctx context.Context, limit int) ([]*membership.Client, error) {
	var clientModels []*models.ClientModel
	err := r.db.WithContext(ctx).
		Where("activo = ?", true).
		Order("creado_en DESC").
		Limit(limit).
		Find(&clientModels).Error
	if err != nil {
		return nil, err
	}
	return toClients(clientModels), nil
}

// OverdueClients returns active clients past their expiration
func (r *GormStatsRepository) OverdueClients(ctx context.Context, today time.Time, limit int) ([]*membership.Client, error) {
	var clientModels []*models.ClientModel
	err := r.db.WithContext(ctx).
		Where("activo = ?", true).
		Where("fecha_vencimiento < ?", membership.DateOf(today)).
		Order("fecha_vencimiento ASC").
		Limit(limit).
		Find(&clientModels).Error
	if err != nil {
		return nil, err
	}
	return toClients(clientModels), nil
}

// MonthlyIncome sums paid rows grouped by billing period
func (r *GormStatsRepository) MonthlyIncome(ctx context.Context, months int) ([]membership.MonthlyIncome, error) {
	var rows []struct {
		PeriodoAno int
		PeriodoMes int
		Total      decimal.Decimal
		Payments   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("periodo_ano, periodo_mes, COALESCE(SUM(monto), 0) AS total, COUNT(*) AS payments").
		Where("estado = ?", membership.PaymentStatusPaid).
		Group("periodo_ano, periodo_mes").
		Order("periodo_ano DESC, periodo_mes DESC").
		Limit(months).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	income := make([]membership.MonthlyIncome, len(rows))
	for i, row := range rows {
		income[i] = membership.MonthlyIncome{
			Period:   membership.Period{Month: row.PeriodoMes, Year: row.PeriodoAno},
			Total:    row.Total,
			Payments: row.Payments,
		}
	}
	return income, nil
}

var _ membership.StatsRepository = (*GormStatsRepository)(nil)
