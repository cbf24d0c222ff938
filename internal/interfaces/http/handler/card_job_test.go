package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/application/event"
	"github.com/onixgym/backend/internal/domain/shared"
	"github.com/onixgym/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCardJobRouter(svc CardJobUseCases) *gin.Engine {
	h := NewCardJobHandler(svc)
	router := gin.New()
	group := router.Group("/admin/card-jobs")
	group.GET("/dead", h.ListDead)
	group.POST("/dead/retry-all", h.RetryAll)
	group.GET("/stats", h.Stats)
	group.GET("/:id", h.Get)
	group.POST("/:id/retry", h.Retry)
	return router
}

func deadJob(id uuid.UUID) *event.CardJobDTO {
	now := time.Now()
	return &event.CardJobDTO{
		ID:         id,
		EventType:  "CardRenderRequested",
		Status:     "DEAD",
		RetryCount: 5,
		MaxRetries: 5,
		LastError:  "Card upload failed",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestCardJobHandler_ListDead(t *testing.T) {
	svc := new(MockCardJobUseCases)
	svc.On("ListDead", mock.Anything, event.CardJobFilter{Page: 2, PageSize: 5}).Return(&event.CardJobListResult{
		Jobs:       []event.CardJobDTO{*deadJob(uuid.New())},
		Total:      6,
		Page:       2,
		PageSize:   5,
		TotalPages: 2,
	}, nil)
	router := newCardJobRouter(svc)

	w := performRequest(router, http.MethodGet, "/admin/card-jobs/dead?page=2&page_size=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, int64(6), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)

	w = performRequest(router, http.MethodGet, "/admin/card-jobs/dead?page_size=1000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "ListDead", 1)
}

func TestCardJobHandler_GetAndRetry(t *testing.T) {
	svc := new(MockCardJobUseCases)
	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(deadJob(id), nil)
	retried := deadJob(id)
	retried.Status = "PENDING"
	retried.RetryCount = 0
	svc.On("Retry", mock.Anything, id).Return(retried, nil)
	missing := uuid.New()
	svc.On("Get", mock.Anything, missing).Return(nil, shared.NewDomainError("NOT_FOUND", "Card job not found"))
	router := newCardJobRouter(svc)

	w := performRequest(router, http.MethodGet, "/admin/card-jobs/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DEAD", decodeResponse(t, w).Data.(map[string]any)["status"])

	w = performRequest(router, http.MethodPost, "/admin/card-jobs/"+id.String()+"/retry", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PENDING", decodeResponse(t, w).Data.(map[string]any)["status"])

	w = performRequest(router, http.MethodGet, "/admin/card-jobs/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, w).Error.Code)

	w = performRequest(router, http.MethodPost, "/admin/card-jobs/nope/retry", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCardJobHandler_RetryAllAndStats(t *testing.T) {
	svc := new(MockCardJobUseCases)
	svc.On("RetryAllDead", mock.Anything).Return(int64(3), nil)
	svc.On("Stats", mock.Anything).Return(&event.CardJobStatsDTO{Pending: 3, Sent: 40, Dead: 0, Total: 43}, nil)
	router := newCardJobRouter(svc)

	w := performRequest(router, http.MethodPost, "/admin/card-jobs/dead/retry-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decodeResponse(t, w).Data.(map[string]any)["count"])

	w = performRequest(router, http.MethodGet, "/admin/card-jobs/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, float64(43), data["total"])
	assert.Equal(t, float64(40), data["sent"])
}
