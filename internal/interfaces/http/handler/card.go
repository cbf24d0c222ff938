package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appmembership "github.com/onixgym/backend/internal/application/membership"
)

// CardHandler serves the membership card of a client
type CardHandler struct {
	BaseHandler
	cards CardUseCases
}

// NewCardHandler creates a new card handler
func NewCardHandler(cards CardUseCases) *CardHandler {
	return &CardHandler{cards: cards}
}

// Get returns the card metadata. image_url is empty while the first render
// is still queued.
//
// GET /clients/:id/card
func (h *CardHandler) Get(c *gin.Context) {
	clientID, ok := h.parseUUIDParam(c, "id", "client")
	if !ok {
		return
	}

	card, err := h.cards.Get(c.Request.Context(), clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, card)
}

// Image streams the rendered PNG.
//
// GET /clients/:id/card/image
func (h *CardHandler) Image(c *gin.Context) {
	clientID, ok := h.parseUUIDParam(c, "id", "client")
	if !ok {
		return
	}

	data, err := h.cards.Image(c.Request.Context(), clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

// Regenerate queues a fresh render of the active card.
//
// POST /clients/:id/card/regenerate
func (h *CardHandler) Regenerate(c *gin.Context) {
	clientID, ok := h.parseUUIDParam(c, "id", "client")
	if !ok {
		return
	}

	card, err := h.cards.Regenerate(c.Request.Context(), clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, card)
}

// WhatsApp builds the wa.me link announcing a paid month. Without month and
// year the latest paid month on the card is used.
//
// GET /clients/:id/card/whatsapp
func (h *CardHandler) WhatsApp(c *gin.Context) {
	clientID, ok := h.parseUUIDParam(c, "id", "client")
	if !ok {
		return
	}

	var req appmembership.CardLinkRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	link, err := h.cards.WhatsAppLink(c.Request.Context(), clientID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, link)
}
