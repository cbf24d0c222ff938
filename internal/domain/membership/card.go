package membership

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/shared"
)

const aggregateTypeCard = "MembershipCard"

// CardAction is what a newly paid period does to the active card
type CardAction int

const (
	// CardMerge adds the period to the existing card
	CardMerge CardAction = iota
	// CardSupersede retires the card and starts a new one for a later year
	CardSupersede
	// CardIgnore leaves the card alone; the period belongs to an earlier year
	CardIgnore
)

// MembershipCard certifies the periods paid within one calendar year.
// A client has at most one active card.
type MembershipCard struct {
	shared.BaseEntity
	ClientID   uuid.UUID
	IssuedBy   *uuid.UUID
	Year       int
	MonthsPaid PeriodSet
	BlobKey    string
	BlobURL    string
	Active     bool
	ValidFrom  time.Time
	ValidUntil *time.Time
	// Revision increases whenever MonthsPaid changes.
	Revision int
	// RenderedRevision is the revision the stored image was drawn from.
	RenderedRevision int
}

// NewMembershipCard creates the active card for the year of p
func NewMembershipCard(clientID uuid.UUID, issuedBy uuid.UUID, p Period, now time.Time) (*MembershipCard, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Card requires a client")
	}
	if _, err := NewPeriod(p.Month, p.Year); err != nil {
		return nil, err
	}
	card := &MembershipCard{
		BaseEntity: shared.NewBaseEntity(),
		ClientID:   clientID,
		Year:       p.Year,
		MonthsPaid: NewPeriodSet(p),
		Active:     true,
		ValidFrom:  DateOf(now),
		Revision:   1,
	}
	if issuedBy != uuid.Nil {
		card.IssuedBy = &issuedBy
	}
	return card, nil
}

// ActionFor decides how a newly paid period affects this card
func (c *MembershipCard) ActionFor(p Period) CardAction {
	switch {
	case p.Year == c.Year:
		return CardMerge
	case p.Year > c.Year:
		return CardSupersede
	default:
		return CardIgnore
	}
}

// Merge adds p to the certified set. Merging a period already present is a
// no-op and leaves the revision untouched.
func (c *MembershipCard) Merge(p Period) (bool, error) {
	if p.Year != c.Year {
		return false, NewInvalidPeriodError("period " + p.Key() + " does not belong to the card year")
	}
	merged, changed := c.MonthsPaid.With(p)
	if !changed {
		return false, nil
	}
	c.MonthsPaid = merged
	c.Revision++
	c.Touch()
	return true, nil
}

// Remove drops p from the certified set, used when its payment is voided
func (c *MembershipCard) Remove(p Period) bool {
	remaining, changed := c.MonthsPaid.Without(p)
	if !changed {
		return false
	}
	c.MonthsPaid = remaining
	c.Revision++
	c.Touch()
	return true
}

// Supersede deactivates the card
func (c *MembershipCard) Supersede(now time.Time) {
	if !c.Active {
		return
	}
	until := DateOf(now)
	c.Active = false
	c.ValidUntil = &until
	c.Touch()
}

// Certifies reports whether the card proves p is paid
func (c *MembershipCard) Certifies(p Period) bool {
	return c.MonthsPaid.Contains(p)
}

// MonthsForYear lists the months to mark on the card image
func (c *MembershipCard) MonthsForYear() []int {
	return c.MonthsPaid.MonthsOf(c.Year)
}

// NeedsRender reports whether the stored image lags the months set
func (c *MembershipCard) NeedsRender() bool {
	return c.RenderedRevision < c.Revision
}

// MarkRendered records the image drawn for revision. Older revisions are
// ignored so a slow render cannot overwrite a newer image.
func (c *MembershipCard) MarkRendered(revision int, key, url string) bool {
	if revision <= c.RenderedRevision {
		return false
	}
	c.BlobKey = key
	c.BlobURL = url
	c.RenderedRevision = revision
	c.Touch()
	return true
}

// Invalidate marks the stored image stale without touching the months, so
// the next render draws it again
func (c *MembershipCard) Invalidate() {
	c.Revision++
	c.Touch()
}

// BlobKeyFor is the object key a client's card for year is stored under
func BlobKeyFor(prefix string, clientID uuid.UUID, year int) string {
	if prefix == "" {
		prefix = "carnets"
	}
	return fmt.Sprintf("%s/%s/%d.png", prefix, clientID, year)
}

// CardFace is everything drawn on a card image
type CardFace struct {
	Name            string
	Surname         string
	InscriptionDate time.Time
	DueDay          int
	Year            int
	Months          []int
}

// FaceFor builds the face of the card for its holder
func (c *MembershipCard) FaceFor(client *Client) CardFace {
	return CardFace{
		Name:            client.Name,
		Surname:         client.Surname,
		InscriptionDate: client.InscriptionDate,
		DueDay:          client.DueDay(),
		Year:            c.Year,
		Months:          c.MonthsForYear(),
	}
}
