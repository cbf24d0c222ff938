package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// mergedMonthsSQL unions the stored months with the incoming ones. The
// function is created by the 000001 migration and returns a sorted,
// duplicate-free jsonb array.
const mergedMonthsSQL = "carnet_merge_months(carnets.meses_pagados, excluded.meses_pagados)"

// GormCardRepository implements membership.CardRepository using GORM
type GormCardRepository struct {
	db *gorm.DB
}

// NewGormCardRepository creates a new GormCardRepository
func NewGormCardRepository(db *gorm.DB) *GormCardRepository {
	return &GormCardRepository{db: db}
}

// FindActive returns the client's active card
func (r *GormCardRepository) FindActive(ctx context.Context, clientID uuid.UUID) (*membership.MembershipCard, error) {
	var model models.CardModel
	err := r.db.WithContext(ctx).
		Where("cliente_id = ? AND activo = ?", clientID, true).
		First(&model).Error
	if err != nil {
		if isNotFound(err) {
			return nil, membership.NewCardNotFoundError(clientID)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID returns a card regardless of its active flag
func (r *GormCardRepository) FindByID(ctx context.Context, id uuid.UUID) (*membership.MembershipCard, error) {
	var model models.CardModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, membership.ErrCardNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpsertForPeriod inserts card as the client's active card, or merges its
// months into the active card of the same year:
//
//	INSERT INTO carnets (...) VALUES (...)
//	ON CONFLICT (cliente_id) WHERE activo DO UPDATE
//	SET meses_pagados = merge(old, new), revision = old + changed
//	WHERE carnets.anio = excluded.anio
//	RETURNING *
//
// The revision only moves when the merge added a month, so repeating the
// call is a no-op. When the active card belongs to another year the update
// is skipped and that card is returned untouched.
func (r *GormCardRepository) UpsertForPeriod(ctx context.Context, card *membership.MembershipCard) (*membership.MembershipCard, error) {
	if !IsPostgres(r.db) {
		return r.upsertPortable(ctx, card)
	}

	model := models.CardModelFromDomain(card)
	result := r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:     []clause.Column{{Name: "cliente_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "activo"}}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "meses_pagados"}, Value: gorm.Expr(mergedMonthsSQL)},
				{Column: clause.Column{Name: "revision"}, Value: gorm.Expr(
					"carnets.revision + CASE WHEN " + mergedMonthsSQL + " = carnets.meses_pagados THEN 0 ELSE 1 END")},
				{Column: clause.Column{Name: "actualizado_en"}, Value: gorm.Expr("excluded.actualizado_en")},
			},
			Where: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "carnets.anio = excluded.anio"}}},
		},
		clause.Returning{},
	).Create(model)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return r.FindActive(ctx, card.ClientID)
	}
	return model.ToDomain(), nil
}

// upsertPortable does the same read-merge-write in two statements for
// databases without the merge function. sqlite serializes writers, so the
// read cannot be raced by another writer inside the transaction.
func (r *GormCardRepository) upsertPortable(ctx context.Context, card *membership.MembershipCard) (*membership.MembershipCard, error) {
	existing, err := r.FindActive(ctx, card.ClientID)
	if err != nil {
		if !isCardNotFound(err) {
			return nil, err
		}
		if err := r.db.WithContext(ctx).Create(models.CardModelFromDomain(card)).Error; err != nil {
			return nil, err
		}
		return card, nil
	}

	if existing.Year != card.Year {
		return existing, nil
	}
	changed := false
	for _, p := range card.MonthsPaid {
		merged, err := existing.Merge(p)
		if err != nil {
			return nil, err
		}
		changed = changed || merged
	}
	if changed {
		if err := r.SaveMonths(ctx, existing); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

// SupersedeOlderThan retires the active card when its year is before year
func (r *GormCardRepository) SupersedeOlderThan(ctx context.Context, clientID uuid.UUID, year int, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CardModel{}).
		Where("cliente_id = ? AND activo = ? AND anio < ?", clientID, true, year).
		Updates(map[string]any{
			"activo":         false,
			"fecha_hasta":    membership.DateOf(now),
			"actualizado_en": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SaveMonths persists MonthsPaid and Revision of an existing card
func (r *GormCardRepository) SaveMonths(ctx context.Context, card *membership.MembershipCard) error {
	result := r.db.WithContext(ctx).
		Model(&models.CardModel{}).
		Where("id = ?", card.ID).
		Updates(map[string]any{
			"meses_pagados":  models.PeriodList(card.MonthsPaid),
			"revision":       card.Revision,
			"actualizado_en": card.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return membership.ErrCardNotFound
	}
	return nil
}

// MarkRendered stores the image reference unless a newer revision was
// already rendered. The guard lives in the WHERE clause so two renders
// finishing out of order cannot regress the stored image.
func (r *GormCardRepository) MarkRendered(ctx context.Context, cardID uuid.UUID, revision int, key, url string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CardModel{}).
		Where("id = ? AND rendered_revision < ?", cardID, revision).
		Updates(map[string]any{
			"blob_key":          key,
			"carnet_url":        url,
			"rendered_revision": revision,
			"actualizado_en":    time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func isCardNotFound(err error) bool {
	return errors.Is(err, membership.ErrCardNotFound)
}

var _ membership.CardRepository = (*GormCardRepository)(nil)
