package handler

import (
	"github.com/gin-gonic/gin"
	appmembership "github.com/onixgym/backend/internal/application/membership"
)

// PaymentHandler handles pago HTTP requests
type PaymentHandler struct {
	BaseHandler
	membership MembershipUseCases
	payments   PaymentQueries
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(membership MembershipUseCases, payments PaymentQueries) *PaymentHandler {
	return &PaymentHandler{
		membership: membership,
		payments:   payments,
	}
}

// Register records one paid month. A month that is already paid answers
// 409 and leaves the ledger untouched.
//
// POST /payments
func (h *PaymentHandler) Register(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}

	var req appmembership.RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	receipt, err := h.membership.RegisterPayment(c.Request.Context(), actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, receipt)
}

// List returns a page of the ledger.
//
// GET /payments
func (h *PaymentHandler) List(c *gin.Context) {
	var filter appmembership.PaymentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	payments, total, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, payments, total, filter.Page, filter.PageSize)
}

// GetByID returns one ledger row.
//
// GET /payments/:id
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "payment")
	if !ok {
		return
	}

	payment, err := h.payments.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// Void marks a paid row anulado and rolls the client's expiration and card
// back to the remaining paid months.
//
// POST /payments/:id/void
func (h *PaymentHandler) Void(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "payment")
	if !ok {
		return
	}

	var req appmembership.VoidPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	receipt, err := h.membership.VoidPayment(c.Request.Context(), actorID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}
