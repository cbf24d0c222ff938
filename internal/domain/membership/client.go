package membership

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/shared"
)

const aggregateTypeClient = "Client"

// Client is a membership holder. Its id is the id of the account it belongs to.
type Client struct {
	shared.Audited
	Name            string
	Surname         string
	Phone           string
	Address         string
	TrainerID       *uuid.UUID
	InscriptionDate time.Time
	// ExpirationDate is the stored source of truth for standing.
	ExpirationDate *time.Time
	// Status is a denormalized copy of DeriveStatus; never read it for decisions.
	Status Status
	Active bool
}

// NewClient creates a client for an existing account
func NewClient(userID uuid.UUID, name, surname, phone string, inscriptionDate time.Time) (*Client, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Client requires an account id")
	}
	name = strings.TrimSpace(name)
	surname = strings.TrimSpace(surname)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Client name cannot be empty")
	}
	if surname == "" {
		return nil, shared.NewDomainError("INVALID_SURNAME", "Client surname cannot be empty")
	}
	if err := validatePhone(phone); err != nil {
		return nil, err
	}
	if inscriptionDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Inscription date is required")
	}

	c := &Client{
		Audited:         shared.Audited{Versioned: shared.NewVersioned(userID)},
		Name:            name,
		Surname:         surname,
		Phone:           strings.TrimSpace(phone),
		InscriptionDate: DateOf(inscriptionDate),
		Status:          StatusInactive,
		Active:          true,
	}
	return c, nil
}

// FullName is "Name Surname"
func (c *Client) FullName() string {
	return strings.TrimSpace(c.Name + " " + c.Surname)
}

// DueDay is the day of month the membership falls due, taken from the inscription date
func (c *Client) DueDay() int {
	return c.InscriptionDate.Day()
}

// CurrentStatus derives the status for now without touching stored state
func (c *Client) CurrentStatus(now time.Time) Status {
	return DeriveStatus(c.ExpirationDate, now)
}

// CoverageEnd is the date a paid period keeps the membership valid until:
// one calendar month after the period's anchor day.
func (c *Client) CoverageEnd(p Period) time.Time {
	return AddMonths(p.AnchorDate(c.DueDay()), 1)
}

// ApplyPaidPeriod extends the expiration to cover p and refreshes the
// denormalized status. The expiration never moves backwards, so paying an
// old period has no effect on standing.
func (c *Client) ApplyPaidPeriod(p Period, now time.Time) {
	end := c.CoverageEnd(p)
	if c.ExpirationDate == nil || end.After(*c.ExpirationDate) {
		c.ExpirationDate = &end
	}
	c.refreshStatus(now)
}

// RecomputeExpiration rebuilds the expiration from the set of periods that
// remain paid. Used after a void; with nothing paid the expiration is cleared.
func (c *Client) RecomputeExpiration(paid PeriodSet, now time.Time) {
	c.ExpirationDate = nil
	if latest, ok := paid.Latest(); ok {
		end := c.CoverageEnd(latest)
		c.ExpirationDate = &end
	}
	c.refreshStatus(now)
}

func (c *Client) refreshStatus(now time.Time) {
	c.Status = DeriveStatus(c.ExpirationDate, now)
	c.Bump()
}

// UpdateProfile changes the editable contact fields
func (c *Client) UpdateProfile(name, surname, phone, address string, trainerID *uuid.UUID) error {
	if name = strings.TrimSpace(name); name != "" {
		c.Name = name
	}
	if surname = strings.TrimSpace(surname); surname != "" {
		c.Surname = surname
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
		c.Phone = strings.TrimSpace(phone)
	}
	c.Address = strings.TrimSpace(address)
	c.TrainerID = trainerID
	c.Bump()
	return nil
}

// Deactivate soft-deletes the client; rows are never removed
func (c *Client) Deactivate() error {
	if !c.Active {
		return shared.NewDomainError("INVALID_STATE", "Client is already deactivated")
	}
	c.Active = false
	c.Bump()
	return nil
}

func validatePhone(phone string) error {
	if len(strings.TrimSpace(phone)) > 30 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 30 characters")
	}
	return nil
}
