package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/onixgym/backend/internal/application/event"
)

// CardJobHandler exposes the card render queue to admins
type CardJobHandler struct {
	BaseHandler
	jobs CardJobUseCases
}

// NewCardJobHandler creates a new card job handler
func NewCardJobHandler(jobs CardJobUseCases) *CardJobHandler {
	return &CardJobHandler{
		jobs: jobs,
	}
}

// RetryAllResponse represents the response for retry all operation
type RetryAllResponse struct {
	Count int64 `json:"count"`
}

// ListDead returns a page of jobs that ran out of retries.
//
// GET /admin/card-jobs/dead
func (h *CardJobHandler) ListDead(c *gin.Context) {
	var filter event.CardJobFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.jobs.ListDead(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Jobs, result.Total, result.Page, result.PageSize)
}

// Get returns one job.
//
// GET /admin/card-jobs/:id
func (h *CardJobHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "job")
	if !ok {
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, job)
}

// Retry puts a dead job back in the queue.
//
// POST /admin/card-jobs/:id/retry
func (h *CardJobHandler) Retry(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "job")
	if !ok {
		return
	}

	job, err := h.jobs.Retry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, job)
}

// RetryAll puts every dead job back in the queue.
//
// POST /admin/card-jobs/dead/retry-all
func (h *CardJobHandler) RetryAll(c *gin.Context) {
	count, err := h.jobs.RetryAllDead(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, RetryAllResponse{Count: count})
}

// Stats counts jobs per status.
//
// GET /admin/card-jobs/stats
func (h *CardJobHandler) Stats(c *gin.Context) {
	stats, err := h.jobs.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}
