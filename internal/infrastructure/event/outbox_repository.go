package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/shared"
	"github.com/onixgym/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOutboxRepository stores render jobs in outbox_events
type GormOutboxRepository struct {
	db *gorm.DB
}

// NewGormOutboxRepository creates a new GORM-based outbox repository
func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// WithTx binds the repository to tx
func (r *GormOutboxRepository) WithTx(tx *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: tx}
}

func inStatus(status shared.OutboxStatus) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", status)
	}
}

func (r *GormOutboxRepository) list(ctx context.Context, query func(*gorm.DB) *gorm.DB) ([]*shared.OutboxEntry, error) {
	var rows []models.OutboxEventModel
	if err := query(r.db.WithContext(ctx)).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*shared.OutboxEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].Entry()
	}
	return out, nil
}

// Save inserts entries in one statement
func (r *GormOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.OutboxEventModel, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.NewOutboxEventModel(e))
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// FindPending returns the oldest pending jobs first
func (r *GormOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Scopes(inStatus(shared.OutboxStatusPending)).Order("created_at ASC").Limit(limit)
	})
}

// FindRetryable returns failed jobs whose backoff has elapsed by before
func (r *GormOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Scopes(inStatus(shared.OutboxStatusFailed)).
			Where("next_retry_at <= ?", before).
			Order("next_retry_at ASC").
			Limit(limit)
	})
}

// MarkProcessing claims the claimable subset of ids. On Postgres the
// SELECT takes row locks with SKIP LOCKED, so concurrent processors split
// a batch instead of rendering the same card twice.
func (r *GormOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var claimed []*shared.OutboxEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.OutboxEventModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("id IN ? AND status IN ?", ids, []shared.OutboxStatus{shared.OutboxStatusPending, shared.OutboxStatusFailed}).
			Find(&rows).Error
		if err != nil || len(rows) == 0 {
			return err
		}

		won := make([]uuid.UUID, 0, len(rows))
		for i := range rows {
			won = append(won, rows[i].ID)
		}
		now := time.Now()
		if err := tx.Model(&models.OutboxEventModel{}).
			Where("id IN ?", won).
			Updates(map[string]any{"status": shared.OutboxStatusProcessing, "updated_at": now}).Error; err != nil {
			return err
		}

		for i := range rows {
			e := rows[i].Entry()
			e.Status = shared.OutboxStatusProcessing
			e.UpdatedAt = now
			claimed = append(claimed, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Update writes back the whole entry
func (r *GormOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	entry.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(models.NewOutboxEventModel(entry)).Error
}

// DeleteOlderThan purges sent jobs processed before the cutoff
func (r *GormOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Scopes(inStatus(shared.OutboxStatusSent)).
		Where("processed_at < ?", before).
		Delete(&models.OutboxEventModel{})
	return res.RowsAffected, res.Error
}

// FindDead pages through dead-lettered jobs, most recently failed first
func (r *GormOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.OutboxEventModel{}).
		Scopes(inStatus(shared.OutboxStatusDead)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	entries, err := r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Scopes(inStatus(shared.OutboxStatusDead)).
			Order("updated_at DESC").
			Offset((page - 1) * pageSize).
			Limit(pageSize)
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// FindByID loads one job. A missing row is shared.ErrNotFound.
func (r *GormOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	var row models.OutboxEventModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, shared.ErrNotFound
	case err != nil:
		return nil, err
	}
	return row.Entry(), nil
}

// CountByStatus returns the number of jobs per status. Statuses with no
// jobs are absent from the map.
func (r *GormOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	var rows []struct {
		Status shared.OutboxStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.OutboxEventModel{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[shared.OutboxStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

var _ shared.OutboxRepository = (*GormOutboxRepository)(nil)
