package handler

import (
	"github.com/gin-gonic/gin"
	appmembership "github.com/onixgym/backend/internal/application/membership"
)

// ClientHandler handles cliente HTTP requests
type ClientHandler struct {
	BaseHandler
	membership MembershipUseCases
	clients    ClientUseCases
	payments   PaymentQueries
}

// NewClientHandler creates a new client handler
func NewClientHandler(membership MembershipUseCases, clients ClientUseCases, payments PaymentQueries) *ClientHandler {
	return &ClientHandler{
		membership: membership,
		clients:    clients,
		payments:   payments,
	}
}

// Register performs an alta: the login, the profile, the first paid month
// and the card, all in one transaction.
//
// POST /clients
func (h *ClientHandler) Register(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}

	var req appmembership.RegisterClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.membership.RegisterClient(c.Request.Context(), actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// List returns a page of clients with their status derived for today.
//
// GET /clients
func (h *ClientHandler) List(c *gin.Context) {
	var filter appmembership.ClientListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	clients, total, err := h.clients.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, clients, total, filter.Page, filter.PageSize)
}

// GetByID returns one client.
//
// GET /clients/:id
func (h *ClientHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "client")
	if !ok {
		return
	}

	client, err := h.clients.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, client)
}

// Update edits the contact fields of a client.
//
// PUT /clients/:id
func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "client")
	if !ok {
		return
	}

	var req appmembership.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	client, err := h.clients.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, client)
}

// Deactivate soft-deletes a client and signs its usuario out.
//
// DELETE /clients/:id
func (h *ClientHandler) Deactivate(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "client")
	if !ok {
		return
	}

	if err := h.clients.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"message": "Client deactivated"})
}

// ListPayments returns the ledger of one client.
//
// GET /clients/:id/payments
func (h *ClientHandler) ListPayments(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "client")
	if !ok {
		return
	}

	var filter appmembership.PaymentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	payments, total, err := h.payments.ListForClient(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, payments, total, filter.Page, filter.PageSize)
}
