package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
	"github.com/onixgym/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements membership.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a ledger row. The partial unique index on paid rows turns a
// racing duplicate into ErrPeriodAlreadyPaid.
func (r *GormPaymentRepository) Create(ctx context.Context, payment *membership.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return membership.NewPeriodAlreadyPaidError(payment.Period)
		}
		return err
	}
	return nil
}

// Update persists the void fields. Amount, method and period never change.
func (r *GormPaymentRepository) Update(ctx context.Context, payment *membership.Payment) error {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("id = ?", payment.ID).
		Updates(map[string]any{
			"estado":           payment.Status,
			"anulado_en":       payment.VoidedAt,
			"anulado_por":      payment.VoidedBy,
			"motivo_anulacion": payment.VoidReason,
			"actualizado_en":   payment.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return membership.NewPaymentNotFoundError(payment.ID)
	}
	return nil
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*membership.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, membership.NewPaymentNotFoundError(id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPaid returns the paid row for (client, period), or nil when there is none
func (r *GormPaymentRepository) FindPaid(ctx context.Context, clientID uuid.UUID, period membership.Period) (*membership.Payment, error) {
	var model models.PaymentModel
	err := r.db.WithContext(ctx).
		Where("cliente_id = ? AND periodo_mes = ? AND periodo_ano = ? AND estado = ?",
			clientID, period.Month, period.Year, membership.PaymentStatusPaid).
		First(&model).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// PaidPeriods returns every period the client has a paid row for
func (r *GormPaymentRepository) PaidPeriods(ctx context.Context, clientID uuid.UUID) (membership.PeriodSet, error) {
	var rows []struct {
		PeriodoMes int
		PeriodoAno int
	}
	err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("periodo_mes, periodo_ano").
		Where("cliente_id = ? AND estado = ?", clientID, membership.PaymentStatusPaid).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	periods := make([]membership.Period, len(rows))
	for i, row := range rows {
		periods[i] = membership.Period{Month: row.PeriodoMes, Year: row.PeriodoAno}
	}
	return membership.NewPeriodSet(periods...), nil
}

// FindAll lists payments matching the filter, newest first
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter membership.PaymentFilter) ([]*membership.Payment, int64, error) {
	var paymentModels []*models.PaymentModel
	var total int64

	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PaymentModel{}), filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := shared.NewPage(filter.Page, filter.PageSize)
	if err := query.Order(orderBy(filter.SortBy, filter.SortOrder, PaymentSortColumns, "payment_date", "creado_en DESC")).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&paymentModels).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]*membership.Payment, len(paymentModels))
	for i, m := range paymentModels {
		payments[i] = m.ToDomain()
	}
	return payments, total, nil
}

func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter membership.PaymentFilter) *gorm.DB {
	if filter.ClientID != nil {
		query = query.Where("cliente_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("estado = ?", *filter.Status)
	}
	if filter.Method != nil {
		query = query.Where("metodo = ?", *filter.Method)
	}
	if filter.Month != nil {
		query = query.Where("periodo_mes = ?", *filter.Month)
	}
	if filter.Year != nil {
		query = query.Where("periodo_ano = ?", *filter.Year)
	}
	if filter.From != nil {
		query = query.Where("fecha_pago >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("fecha_pago <= ?", *filter.To)
	}
	return query
}

var _ membership.PaymentRepository = (*GormPaymentRepository)(nil)
