package membership

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
)

// memoryStore is an in-process stand-in for the database. Copies go in and
// out so tests observe only what was explicitly written back.
type memoryStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]membership.Account
	clients  map[uuid.UUID]membership.Client
	payments map[uuid.UUID]membership.Payment
	cards    map[uuid.UUID]membership.MembershipCard
	events   recordingPublisher
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts: map[uuid.UUID]membership.Account{},
		clients:  map[uuid.UUID]membership.Client{},
		payments: map[uuid.UUID]membership.Payment{},
		cards:    map[uuid.UUID]membership.MembershipCard{},
	}
}

func (s *memoryStore) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(memAccounts{s}, memClients{s}, memPayments{s}, memCards{s}, &s.events)
}

func (s *memoryStore) activeCard(clientID uuid.UUID) (membership.MembershipCard, bool) {
	for _, c := range s.cards {
		if c.ClientID == clientID && c.Active {
			return c, true
		}
	}
	return membership.MembershipCard{}, false
}

type memAccounts struct{ s *memoryStore }

func (r memAccounts) Create(_ context.Context, a *membership.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.accounts[a.ID] = *a
	return nil
}

func (r memAccounts) FindByID(_ context.Context, id uuid.UUID) (*membership.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &a, nil
}

func (r memAccounts) FindByUsername(_ context.Context, username string) (*membership.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Username == strings.ToLower(username) {
			return &a, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memAccounts) RecordLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a := r.s.accounts[id]
	a.LastLoginAt = &at
	r.s.accounts[id] = a
	return nil
}

func (r memAccounts) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r memAccounts) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r memAccounts) Deactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.Active = false
	r.s.accounts[id] = a
	return nil
}

type memClients struct{ s *memoryStore }

func (r memClients) Create(_ context.Context, c *membership.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clients[c.ID] = *c
	return nil
}

func (r memClients) Update(_ context.Context, c *membership.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[c.ID]; !ok {
		return membership.NewClientNotFoundError(c.ID)
	}
	r.s.clients[c.ID] = *c
	return nil
}

func (r memClients) FindByID(_ context.Context, id uuid.UUID) (*membership.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, membership.NewClientNotFoundError(id)
	}
	return &c, nil
}

func (r memClients) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*membership.Client, error) {
	return r.FindByID(ctx, id)
}

func (r memClients) FindAll(_ context.Context, filter membership.ClientFilter) ([]*membership.Client, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*membership.Client
	for _, c := range r.s.clients {
		if !c.Active && !filter.IncludeInactive {
			continue
		}
		if filter.Status != nil && c.CurrentStatus(filter.Today) != *filter.Status {
			continue
		}
		out = append(out, &c)
	}
	return out, int64(len(out)), nil
}

func (r memClients) FindExpiringBetween(_ context.Context, from, to time.Time) ([]*membership.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*membership.Client
	for _, c := range r.s.clients {
		if c.Active && c.Phone != "" && c.ExpirationDate != nil &&
			!c.ExpirationDate.Before(from) && !c.ExpirationDate.After(to) {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpirationDate.Before(*out[j].ExpirationDate) })
	return out, nil
}

type memPayments struct{ s *memoryStore }

func (r memPayments) Create(_ context.Context, p *membership.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.payments {
		if existing.ClientID == p.ClientID && existing.Period == p.Period && existing.IsPaid() {
			return membership.ErrPeriodAlreadyPaid
		}
	}
	r.s.payments[p.ID] = *p
	return nil
}

func (r memPayments) Update(_ context.Context, p *membership.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.payments[p.ID] = *p
	return nil
}

func (r memPayments) FindByID(_ context.Context, id uuid.UUID) (*membership.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, membership.NewPaymentNotFoundError(id)
	}
	return &p, nil
}

func (r memPayments) FindPaid(_ context.Context, clientID uuid.UUID, period membership.Period) (*membership.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.ClientID == clientID && p.Period == period && p.IsPaid() {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memPayments) PaidPeriods(_ context.Context, clientID uuid.UUID) (membership.PeriodSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var periods []membership.Period
	for _, p := range r.s.payments {
		if p.ClientID == clientID && p.IsPaid() {
			periods = append(periods, p.Period)
		}
	}
	return membership.NewPeriodSet(periods...), nil
}

func (r memPayments) FindAll(_ context.Context, filter membership.PaymentFilter) ([]*membership.Payment, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*membership.Payment
	for _, p := range r.s.payments {
		if filter.ClientID != nil && p.ClientID != *filter.ClientID {
			continue
		}
		out = append(out, &p)
	}
	return out, int64(len(out)), nil
}

// memCards mirrors the portable upsert of the gorm repository
type memCards struct{ s *memoryStore }

func (r memCards) FindActive(_ context.Context, clientID uuid.UUID) (*membership.MembershipCard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.activeCard(clientID)
	if !ok {
		return nil, membership.NewCardNotFoundError(clientID)
	}
	return &c, nil
}

func (r memCards) FindByID(_ context.Context, id uuid.UUID) (*membership.MembershipCard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[id]
	if !ok {
		return nil, membership.ErrCardNotFound
	}
	return &c, nil
}

func (r memCards) UpsertForPeriod(_ context.Context, card *membership.MembershipCard) (*membership.MembershipCard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.activeCard(card.ClientID)
	if !ok {
		r.s.cards[card.ID] = *card
		out := *card
		return &out, nil
	}
	if existing.Year != card.Year {
		return &existing, nil
	}
	for _, p := range card.MonthsPaid {
		if _, err := existing.Merge(p); err != nil {
			return nil, err
		}
	}
	r.s.cards[existing.ID] = existing
	return &existing, nil
}

func (r memCards) SupersedeOlderThan(_ context.Context, clientID uuid.UUID, year int, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.activeCard(clientID)
	if !ok || existing.Year >= year {
		return false, nil
	}
	existing.Supersede(now)
	r.s.cards[existing.ID] = existing
	return true, nil
}

func (r memCards) SaveMonths(_ context.Context, card *membership.MembershipCard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.cards[card.ID]
	if !ok {
		return membership.ErrCardNotFound
	}
	stored.MonthsPaid = card.MonthsPaid
	stored.Revision = card.Revision
	r.s.cards[card.ID] = stored
	return nil
}

func (r memCards) MarkRendered(_ context.Context, cardID uuid.UUID, revision int, key, url string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.cards[cardID]
	if !ok {
		return false, nil
	}
	changed := stored.MarkRendered(revision, key, url)
	r.s.cards[cardID] = stored
	return changed, nil
}

// fakeRenderer returns the months it was asked to draw as the image bytes
type fakeRenderer struct {
	calls int
	err   error
}

func (f *fakeRenderer) Render(face membership.CardFace) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := []byte(face.Name + ":")
	for _, m := range face.Months {
		out = append(out, byte('0'+m%10))
	}
	return out, nil
}

// fakeStore is an in-memory CardStore
type fakeStore struct {
	objects map[string][]byte
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, ErrCardImageNotFound
	}
	return data, nil
}

func (f *fakeStore) URL(_ context.Context, key string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func intPtr(v int) *int {
	return &v
}
