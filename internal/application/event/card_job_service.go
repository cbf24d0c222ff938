package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CardJobService lets operators inspect and replay outbox jobs, mainly the
// card renders that exhausted their retries.
type CardJobService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

// NewCardJobService creates a new card job service
func NewCardJobService(repo shared.OutboxRepository, logger *zap.Logger) *CardJobService {
	return &CardJobService{
		repo:   repo,
		logger: logger,
	}
}

// CardJobDTO is the admin view of an outbox entry
type CardJobDTO struct {
	ID             uuid.UUID  `json:"id"`
	EventID        uuid.UUID  `json:"event_id"`
	EventType      string     `json:"event_type"`
	AggregateID    uuid.UUID  `json:"aggregate_id"`
	AggregateType  string     `json:"aggregate_type"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	Status         string     `json:"status"`
	RetryCount     int        `json:"retry_count"`
	MaxRetries     int        `json:"max_retries"`
	LastError      string     `json:"last_error,omitempty"`
	NextRetryAt    *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CardJobFilter pages the dead letter listing
type CardJobFilter struct {
	Page     int `form:"page,omitempty" binding:"omitempty,min=1"`
	PageSize int `form:"page_size,omitempty" binding:"omitempty,min=1,max=100"`
}

// CardJobListResult is a page of jobs
type CardJobListResult struct {
	Jobs       []CardJobDTO `json:"jobs"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

// CardJobStatsDTO counts jobs per status
type CardJobStatsDTO struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

var (
	errJobNotFound = shared.NewDomainError("NOT_FOUND", "Card job not found")
	errJobInternal = shared.NewDomainError("INTERNAL_ERROR", "Failed to access card jobs")
)

// ListDead returns dead letter jobs, newest first
func (s *CardJobService) ListDead(ctx context.Context, filter CardJobFilter) (*CardJobListResult, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	entries, total, err := s.repo.FindDead(ctx, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to find dead letter entries", zap.Error(err))
		return nil, errJobInternal
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	jobs := make([]CardJobDTO, len(entries))
	for i, entry := range entries {
		jobs[i] = toCardJobDTO(entry)
	}

	return &CardJobListResult{
		Jobs:       jobs,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Get returns a single job
func (s *CardJobService) Get(ctx context.Context, id uuid.UUID) (*CardJobDTO, error) {
	entry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toCardJobDTO(entry)
	return &dto, nil
}

// Retry puts a dead job back in the pending queue with a fresh retry budget
func (s *CardJobService) Retry(ctx context.Context, id uuid.UUID) (*CardJobDTO, error) {
	entry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.Errorf(shared.ErrInvalidState, "card job %s is not dead-lettered", id)
	}

	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("Failed to update outbox entry", zap.Error(err), zap.String("id", id.String()))
		return nil, errJobInternal
	}

	s.logger.Info("Dead letter entry reset for retry",
		zap.String("id", id.String()),
		zap.String("event_type", entry.EventType),
		zap.String("idempotency_key", entry.IdempotencyKey),
	)

	dto := toCardJobDTO(entry)
	return &dto, nil
}

// RetryAllDead resets every dead job. Reset entries leave the dead set, so
// the first page is read until it comes back empty.
func (s *CardJobService) RetryAllDead(ctx context.Context) (int64, error) {
	const pageSize = 100
	var count int64

	for {
		entries, _, err := s.repo.FindDead(ctx, 1, pageSize)
		if err != nil {
			s.logger.Error("Failed to find dead letter entries", zap.Error(err))
			return count, errJobInternal
		}
		if len(entries) == 0 {
			break
		}

		reset := 0
		for _, entry := range entries {
			if err := entry.ResetForRetry(); err != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				s.logger.Error("Failed to update outbox entry", zap.Error(err), zap.String("id", entry.ID.String()))
				continue
			}
			reset++
		}
		count += int64(reset)

		if reset == 0 || len(entries) < pageSize {
			break
		}
	}

	s.logger.Info("Retried dead letter entries", zap.Int64("count", count))
	return count, nil
}

// Stats counts jobs per status
func (s *CardJobService) Stats(ctx context.Context) (*CardJobStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to get outbox stats", zap.Error(err))
		return nil, errJobInternal
	}

	var total int64
	for _, count := range counts {
		total += count
	}

	return &CardJobStatsDTO{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
		Total:      total,
	}, nil
}

func (s *CardJobService) find(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) || (err == nil && entry == nil) {
		return nil, errJobNotFound
	}
	if err != nil {
		s.logger.Error("Failed to find outbox entry", zap.Error(err), zap.String("id", id.String()))
		return nil, errJobInternal
	}
	return entry, nil
}

func toCardJobDTO(entry *shared.OutboxEntry) CardJobDTO {
	return CardJobDTO{
		ID:             entry.ID,
		EventID:        entry.EventID,
		EventType:      entry.EventType,
		AggregateID:    entry.AggregateID,
		AggregateType:  entry.AggregateType,
		IdempotencyKey: entry.IdempotencyKey,
		Status:         string(entry.Status),
		RetryCount:     entry.RetryCount,
		MaxRetries:     entry.MaxRetries,
		LastError:      entry.LastError,
		NextRetryAt:    entry.NextRetryAt,
		ProcessedAt:    entry.ProcessedAt,
		CreatedAt:      entry.CreatedAt,
		UpdatedAt:      entry.UpdatedAt,
	}
}
