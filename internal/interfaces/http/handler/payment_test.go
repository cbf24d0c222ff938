package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appmembership "github.com/onixgym/backend/internal/application/membership"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPaymentRouter(actorID uuid.UUID) (*gin.Engine, *MockMembershipUseCases, *MockPaymentQueries) {
	svc := new(MockMembershipUseCases)
	queries := new(MockPaymentQueries)
	h := NewPaymentHandler(svc, queries)

	router := gin.New()
	group := router.Group("/payments", authenticatedAs(actorID, "entrenador"))
	group.POST("", h.Register)
	group.GET("", h.List)
	group.GET("/:id", h.GetByID)
	group.POST("/:id/void", h.Void)
	return router, svc, queries
}

func TestPaymentHandler_Register(t *testing.T) {
	actorID := uuid.New()
	router, svc, _ := newPaymentRouter(actorID)
	clientID := uuid.New()
	svc.On("RegisterPayment", mock.Anything, actorID, mock.MatchedBy(func(req appmembership.RegisterPaymentRequest) bool {
		return req.ClientID == clientID && req.Amount == nil && req.Month != nil && *req.Month == 4 &&
			req.PaymentDate == "2024-04-02"
	})).Return(&appmembership.PaymentReceipt{
		Payment: appmembership.PaymentResponse{ClientID: clientID, Period: "2024-04", Status: "pagado"},
		Client:  appmembership.ClientResponse{ID: clientID, Status: "activo"},
	}, nil)

	w := performRequest(router, http.MethodPost, "/payments", map[string]any{
		"client_id":    clientID,
		"month":        4,
		"year":         2024,
		"payment_date": "2024-04-02",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "2024-04", data["payment"].(map[string]any)["period"])
	assert.NotContains(t, data, "card")
	svc.AssertExpectations(t)
}

func TestPaymentHandler_RegisterAlreadyPaid(t *testing.T) {
	router, svc, _ := newPaymentRouter(uuid.New())
	svc.On("RegisterPayment", mock.Anything, mock.Anything, mock.Anything).Return(nil, membership.ErrPeriodAlreadyPaid)

	w := performRequest(router, http.MethodPost, "/payments", map[string]any{"client_id": uuid.New()})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodePeriodAlreadyPaid, decodeResponse(t, w).Error.Code)
}

func TestPaymentHandler_RegisterValidation(t *testing.T) {
	router, svc, _ := newPaymentRouter(uuid.New())

	tests := []struct {
		name string
		body any
	}{
		{"missing client", map[string]any{"month": 1}},
		{"bad month", map[string]any{"client_id": uuid.New(), "month": 13}},
		{"bad year", map[string]any{"client_id": uuid.New(), "year": 1999}},
		{"bad date", map[string]any{"client_id": uuid.New(), "payment_date": "2024-13-01"}},
		{"bad amount type", map[string]any{"client_id": uuid.New(), "amount": true}},
		{"malformed", `{"client_id":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, "/payments", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	svc.AssertNotCalled(t, "RegisterPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentHandler_List(t *testing.T) {
	router, _, queries := newPaymentRouter(uuid.New())
	queries.On("List", mock.Anything, appmembership.PaymentListFilter{
		Method: "tarjeta",
		From:   "2024-01-01",
		To:     "2024-03-31",
	}).Return([]appmembership.PaymentResponse{}, int64(0), nil)

	w := performRequest(router, http.MethodGet, "/payments?method=tarjeta&from=2024-01-01&to=2024-03-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	queries.AssertExpectations(t)

	w = performRequest(router, http.MethodGet, "/payments?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_GetByID(t *testing.T) {
	router, _, queries := newPaymentRouter(uuid.New())
	id := uuid.New()
	queries.On("GetByID", mock.Anything, id).Return(nil, membership.ErrPaymentNotFound)

	w := performRequest(router, http.MethodGet, "/payments/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodePaymentNotFound, decodeResponse(t, w).Error.Code)
}

func TestPaymentHandler_Void(t *testing.T) {
	actorID := uuid.New()
	router, svc, _ := newPaymentRouter(actorID)
	id := uuid.New()
	svc.On("VoidPayment", mock.Anything, actorID, id, appmembership.VoidPaymentRequest{Reason: "cobro duplicado"}).
		Return(&appmembership.PaymentReceipt{
			Payment: appmembership.PaymentResponse{ID: id, Status: "anulado", VoidReason: "cobro duplicado"},
			Card:    &appmembership.CardResponse{Months: []int{1}},
		}, nil)

	w := performRequest(router, http.MethodPost, "/payments/"+id.String()+"/void", map[string]string{"reason": "cobro duplicado"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "anulado", data["payment"].(map[string]any)["status"])
	assert.Contains(t, data, "card")

	w = performRequest(router, http.MethodPost, "/payments/"+id.String()+"/void", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodPost, "/payments/xyz/void", map[string]string{"reason": "cobro duplicado"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertNumberOfCalls(t, "VoidPayment", 1)
}
