package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
	"github.com/onixgym/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTrainerRepository implements membership.TrainerRepository using GORM
type GormTrainerRepository struct {
	db *gorm.DB
}

// NewGormTrainerRepository creates a new GormTrainerRepository
func NewGormTrainerRepository(db *gorm.DB) *GormTrainerRepository {
	return &GormTrainerRepository{db: db}
}

// FindAll lists trainers ordered by name
func (r *GormTrainerRepository) FindAll(ctx context.Context, availableOnly bool) ([]*membership.Trainer, error) {
	var trainerModels []*models.TrainerModel
	query := r.db.WithContext(ctx)
	if availableOnly {
		query = query.Where("disponible = ?", true)
	}
	if err := query.Order("nombre ASC, apellido ASC").Find(&trainerModels).Error; err != nil {
		return nil, err
	}

	trainers := make([]*membership.Trainer, len(trainerModels))
	for i, m := range trainerModels {
		trainers[i] = m.ToDomain()
	}
	return trainers, nil
}

// FindByID finds a trainer by ID
func (r *GormTrainerRepository) FindByID(ctx context.Context, id uuid.UUID) (*membership.Trainer, error) {
	var model models.TrainerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ membership.TrainerRepository = (*GormTrainerRepository)(nil)
