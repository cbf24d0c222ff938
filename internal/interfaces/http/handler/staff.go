package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// TrainerHandler lists entrenadores
type TrainerHandler struct {
	BaseHandler
	trainers TrainerQueries
}

// NewTrainerHandler creates a new trainer handler
func NewTrainerHandler(trainers TrainerQueries) *TrainerHandler {
	return &TrainerHandler{trainers: trainers}
}

// List returns trainers, only the ones taking clients when available=true.
//
// GET /trainers
func (h *TrainerHandler) List(c *gin.Context) {
	availableOnly := false
	if raw := c.Query("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.BadRequest(c, "available must be true or false")
			return
		}
		availableOnly = v
	}

	trainers, err := h.trainers.List(c.Request.Context(), availableOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trainers)
}

// DashboardHandler serves the staff overview
type DashboardHandler struct {
	BaseHandler
	dashboard DashboardQueries
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard DashboardQueries) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary returns status counts, recent and overdue clients and income per
// month.
//
// GET /dashboard
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// NotificationHandler lists reminder candidates
type NotificationHandler struct {
	BaseHandler
	reminders ReminderQueries
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(reminders ReminderQueries) *NotificationHandler {
	return &NotificationHandler{reminders: reminders}
}

// ExpirationsQuery is the query string of the reminder listing. Zero days
// uses the configured window and large values are capped.
type ExpirationsQuery struct {
	Days int `form:"days" binding:"omitempty,min=0"`
}

// Expirations lists active members with a phone whose membership lapses
// within the window, each with a ready WhatsApp reminder.
//
// GET /notifications/expirations
func (h *NotificationHandler) Expirations(c *gin.Context) {
	var query ExpirationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	reminders, err := h.reminders.UpcomingExpirations(c.Request.Context(), query.Days)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reminders)
}
