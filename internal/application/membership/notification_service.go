package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/infrastructure/messaging"
	"go.uber.org/zap"
)

// maxReminderWindow bounds how far ahead reminders may look
const maxReminderWindow = 60

// NotificationService finds members about to lapse and prepares the
// WhatsApp reminders staff send them.
type NotificationService struct {
	clients       membership.ClientRepository
	links         *messaging.WhatsAppLinkBuilder
	defaultWindow int
	clock         Clock
	logger        *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(clients membership.ClientRepository, links *messaging.WhatsAppLinkBuilder, defaultWindow int, logger *zap.Logger) *NotificationService {
	if defaultWindow <= 0 {
		defaultWindow = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		clients:       clients,
		links:         links,
		defaultWindow: defaultWindow,
		clock:         time.Now,
		logger:        logger,
	}
}

// SetClock replaces the time source
func (s *NotificationService) SetClock(clock Clock) {
	s.clock = clock
}

// UpcomingExpirations lists active members with a phone whose membership
// expires within days from today, soonest first. days <= 0 uses the
// configured window.
func (s *NotificationService) UpcomingExpirations(ctx context.Context, days int) ([]ExpirationReminder, error) {
	if days <= 0 {
		days = s.defaultWindow
	}
	if days > maxReminderWindow {
		days = maxReminderWindow
	}

	now := s.clock()
	today := membership.DateOf(now)
	clients, err := s.clients.FindExpiringBetween(ctx, today, today.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("failed to find expiring clients: %w", err)
	}

	reminders := make([]ExpirationReminder, 0, len(clients))
	for _, c := range clients {
		if c.ExpirationDate == nil {
			continue
		}
		reminder := ExpirationReminder{
			Client:         toClientSummary(c, now),
			ExpirationDate: c.ExpirationDate.Format(DateLayout),
			DaysLeft:       membership.DaysUntil(*c.ExpirationDate, now),
		}
		link, err := s.links.ReminderLink(messaging.ReminderMessage{
			Phone:      c.Phone,
			Name:       c.Name,
			Expiration: *c.ExpirationDate,
		})
		if err != nil {
			s.logger.Warn("Skipping reminder link",
				zap.String("client_id", c.ID.String()),
				zap.Error(err),
			)
		} else {
			reminder.WhatsApp = link
		}
		reminders = append(reminders, reminder)
	}
	return reminders, nil
}
