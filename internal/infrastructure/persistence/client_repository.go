package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
	"github.com/onixgym/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormClientRepository implements membership.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// Create inserts a new client
func (r *GormClientRepository) Create(ctx context.Context, client *membership.Client) error {
	model := models.ClientModelFromDomain(client)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, "Client already exists")
		}
		return err
	}
	return nil
}

// Update writes every mutable column of the client
func (r *GormClientRepository) Update(ctx context.Context, client *membership.Client) error {
	model := models.ClientModelFromDomain(client)
	result := r.db.WithContext(ctx).
		Model(&models.ClientModel{}).
		Where("id = ?", client.ID).
		Select("nombre", "apellido", "telefono", "direccion", "entrenador_id",
			"fecha_vencimiento", "estado_cuota", "activo", "version", "actualizado_en").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return membership.NewClientNotFoundError(client.ID)
	}
	return nil
}

// FindByID finds a client by ID
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*membership.Client, error) {
	return r.find(ctx, r.db.WithContext(ctx), id)
}

// FindByIDForUpdate loads the client with SELECT ... FOR UPDATE
func (r *GormClientRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*membership.Client, error) {
	return r.find(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormClientRepository) find(_ context.Context, db *gorm.DB, id uuid.UUID) (*membership.Client, error) {
	var model models.ClientModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, membership.NewClientNotFoundError(id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists clients matching the filter, most recent inscriptions first
// unless the filter names another sort key
func (r *GormClientRepository) FindAll(ctx context.Context, filter membership.ClientFilter) ([]*membership.Client, int64, error) {
	var clientModels []*models.ClientModel
	var total int64

	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ClientModel{}), filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := shared.NewPage(filter.Page, filter.PageSize)
	if err := query.Order(orderBy(filter.SortBy, filter.SortOrder, ClientSortColumns, "inscription_date", "nombre ASC, id ASC")).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&clientModels).Error; err != nil {
		return nil, 0, err
	}

	return toClients(clientModels), total, nil
}

// FindExpiringBetween lists active clients with a phone expiring in [from, to]
func (r *GormClientRepository) FindExpiringBetween(ctx context.Context, from, to time.Time) ([]*membership.Client, error) {
	var clientModels []*models.ClientModel
	err := r.db.WithContext(ctx).
		Where("activo = ?", true).
		Where("telefono IS NOT NULL AND telefono <> ''").
		Where("fecha_vencimiento BETWEEN ? AND ?", membership.DateOf(from), membership.DateOf(to)).
		Order("fecha_vencimiento ASC").
		Find(&clientModels).Error
	if err != nil {
		return nil, err
	}
	return toClients(clientModels), nil
}

func (r *GormClientRepository) applyFilter(query *gorm.DB, filter membership.ClientFilter) *gorm.DB {
	if !filter.IncludeInactive {
		query = query.Where("activo = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(nombre) LIKE ? OR LOWER(apellido) LIKE ? OR telefono LIKE ?", pattern, pattern, pattern)
	}
	if filter.TrainerID != nil {
		query = query.Where("entrenador_id = ?", *filter.TrainerID)
	}
	if filter.Status != nil {
		today := filter.Today
		if today.IsZero() {
			today = time.Now()
		}
		query = applyStatusWindow(query, *filter.Status, today)
	}
	return query
}

// applyStatusWindow translates a derived status into a range over the stored
// expiration date, using the same thresholds as DeriveStatus.
func applyStatusWindow(query *gorm.DB, status membership.Status, today time.Time) *gorm.DB {
	from, to := membership.ExpirationWindow(status, today)
	switch {
	case status == membership.StatusInactive:
		return query.Where("fecha_vencimiento IS NULL OR fecha_vencimiento <= ?", *to)
	case from != nil && to != nil:
		return query.Where("fecha_vencimiento BETWEEN ? AND ?", *from, *to)
	case from != nil:
		return query.Where("fecha_vencimiento >= ?", *from)
	}
	return query
}

func toClients(ms []*models.ClientModel) []*membership.Client {
	clients := make([]*membership.Client, len(ms))
	for i, m := range ms {
		clients[i] = m.ToDomain()
	}
	return clients
}

var _ membership.ClientRepository = (*GormClientRepository)(nil)
