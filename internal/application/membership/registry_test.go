package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type registryFixture struct {
	store    *memoryStore
	registry *CardRegistry
	renderer *fakeRenderer
	blobs    *fakeStore
	client   *membership.Client
}

func newRegistryFixture(t *testing.T) *registryFixture {
	t.Helper()
	store := newMemoryStore()
	renderer := &fakeRenderer{}
	blobs := newFakeStore()
	client, err := membership.NewClient(uuid.New(), "Luis", "Gómez", "1144440000", day(2024, 1, 20))
	require.NoError(t, err)
	require.NoError(t, memClients{store}.Create(context.Background(), client))
	return &registryFixture{
		store:    store,
		registry: NewCardRegistry(memCards{store}, memClients{store}, renderer, blobs, "carnets", zaptest.NewLogger(t)),
		renderer: renderer,
		blobs:    blobs,
		client:   client,
	}
}

func (f *registryFixture) ensure(t *testing.T, month, year int) *CardChange {
	t.Helper()
	change, err := f.registry.EnsureCardForPeriod(context.Background(), f.client.ID, uuid.Nil,
		membership.Period{Month: month, Year: year}, day(2024, 6, 1))
	require.NoError(t, err)
	return change
}

func TestCardRegistry_EnsureCardForPeriod(t *testing.T) {
	t.Run("first period opens a card", func(t *testing.T) {
		f := newRegistryFixture(t)
		change := f.ensure(t, 3, 2024)
		assert.True(t, change.Changed)
		assert.False(t, change.Superseded)
		assert.Equal(t, 2024, change.Card.Year)
		assert.Equal(t, []int{3}, change.Card.MonthsForYear())
		assert.Equal(t, 1, change.Card.Revision)
		assert.Nil(t, change.Card.IssuedBy)
	})

	t.Run("same period twice is a no-op", func(t *testing.T) {
		f := newRegistryFixture(t)
		f.ensure(t, 3, 2024)
		change := f.ensure(t, 3, 2024)
		assert.False(t, change.Changed)
		assert.Equal(t, 1, change.Card.Revision)
		assert.Len(t, f.store.cards, 1)
	})

	t.Run("same year merges", func(t *testing.T) {
		f := newRegistryFixture(t)
		first := f.ensure(t, 3, 2024)
		change := f.ensure(t, 1, 2024)
		assert.True(t, change.Changed)
		assert.Equal(t, first.Card.ID, change.Card.ID)
		assert.Equal(t, []int{1, 3}, change.Card.MonthsForYear())
		assert.Equal(t, 2, change.Card.Revision)
	})

	t.Run("later year supersedes", func(t *testing.T) {
		f := newRegistryFixture(t)
		first := f.ensure(t, 11, 2024)
		change := f.ensure(t, 2, 2025)
		assert.True(t, change.Changed)
		assert.True(t, change.Superseded)
		assert.NotEqual(t, first.Card.ID, change.Card.ID)
		assert.Equal(t, []int{2}, change.Card.MonthsForYear())

		retired := f.store.cards[first.Card.ID]
		assert.False(t, retired.Active)
		assert.Equal(t, day(2024, 6, 1), *retired.ValidUntil)
	})

	t.Run("earlier year is ignored", func(t *testing.T) {
		f := newRegistryFixture(t)
		first := f.ensure(t, 4, 2024)
		change := f.ensure(t, 12, 2023)
		assert.False(t, change.Changed)
		assert.Equal(t, first.Card.ID, change.Card.ID)
		assert.Equal(t, []int{4}, change.Card.MonthsForYear())
		assert.Len(t, f.store.cards, 1)
	})
}

func TestCardRegistry_RemovePeriod(t *testing.T) {
	ctx := context.Background()

	t.Run("no card", func(t *testing.T) {
		f := newRegistryFixture(t)
		change, err := f.registry.RemovePeriod(ctx, f.client.ID, membership.Period{Month: 1, Year: 2024})
		require.NoError(t, err)
		assert.Nil(t, change.Card)
		assert.False(t, change.Changed)
	})

	t.Run("removes the month and bumps the revision", func(t *testing.T) {
		f := newRegistryFixture(t)
		f.ensure(t, 1, 2024)
		f.ensure(t, 2, 2024)
		change, err := f.registry.RemovePeriod(ctx, f.client.ID, membership.Period{Month: 2, Year: 2024})
		require.NoError(t, err)
		assert.True(t, change.Changed)
		assert.Equal(t, []int{1}, change.Card.MonthsForYear())

		stored, _ := f.store.activeCard(f.client.ID)
		assert.Equal(t, 3, stored.Revision)
	})

	t.Run("period of another year leaves the card", func(t *testing.T) {
		f := newRegistryFixture(t)
		f.ensure(t, 1, 2024)
		change, err := f.registry.RemovePeriod(ctx, f.client.ID, membership.Period{Month: 1, Year: 2023})
		require.NoError(t, err)
		assert.False(t, change.Changed)
		assert.Equal(t, 1, change.Card.Revision)
	})
}

func TestCardRegistry_RefreshImage(t *testing.T) {
	ctx := context.Background()

	t.Run("draws the full month set once", func(t *testing.T) {
		f := newRegistryFixture(t)
		f.ensure(t, 1, 2024)
		f.ensure(t, 5, 2024)

		stored, err := f.registry.RefreshImage(ctx, f.client.ID)
		require.NoError(t, err)
		assert.True(t, stored)
		key := membership.BlobKeyFor("carnets", f.client.ID, 2024)
		assert.Equal(t, []byte("Luis:15"), f.blobs.objects[key])

		card, _ := f.store.activeCard(f.client.ID)
		assert.Equal(t, "https://cdn.test/"+key, card.BlobURL)
		assert.False(t, card.NeedsRender())

		stored, err = f.registry.RefreshImage(ctx, f.client.ID)
		require.NoError(t, err)
		assert.False(t, stored)
		assert.Equal(t, 1, f.renderer.calls)
	})

	t.Run("upload failure", func(t *testing.T) {
		f := newRegistryFixture(t)
		f.ensure(t, 1, 2024)
		f.blobs.err = errors.New("bucket unreachable")

		stored, err := f.registry.RefreshImage(ctx, f.client.ID)
		assert.False(t, stored)
		assert.ErrorIs(t, err, membership.ErrStorageUploadFailure)
		assert.Contains(t, err.Error(), "bucket unreachable")

		card, _ := f.store.activeCard(f.client.ID)
		assert.True(t, card.NeedsRender(), "the card stays pending so the retry draws it")
	})

	t.Run("render failure", func(t *testing.T) {
		f := newRegistryFixture(t)
		f.ensure(t, 1, 2024)
		f.renderer.err = membership.ErrTemplateNotFound

		_, err := f.registry.RefreshImage(ctx, f.client.ID)
		assert.ErrorIs(t, err, membership.ErrTemplateNotFound)
		assert.Empty(t, f.blobs.objects)
	})

	t.Run("client without card", func(t *testing.T) {
		f := newRegistryFixture(t)
		_, err := f.registry.RefreshImage(ctx, f.client.ID)
		assert.ErrorIs(t, err, membership.ErrCardNotFound)
	})

	t.Run("newer image already stored", func(t *testing.T) {
		cards := new(MockCardRepository)
		clients := new(MockClientRepository)
		renderer := new(MockCardRenderer)
		blobs := new(MockCardStore)
		registry := NewCardRegistry(cards, clients, renderer, blobs, "carnets", zaptest.NewLogger(t))

		client, err := membership.NewClient(uuid.New(), "Luis", "Gómez", "", day(2024, 1, 20))
		require.NoError(t, err)
		card, err := membership.NewMembershipCard(client.ID, uuid.Nil, membership.Period{Month: 1, Year: 2024}, day(2024, 1, 20))
		require.NoError(t, err)
		key := membership.BlobKeyFor("carnets", client.ID, 2024)

		cards.On("FindActive", mock.Anything, client.ID).Return(card, nil)
		clients.On("FindByID", mock.Anything, client.ID).Return(client, nil)
		renderer.On("Render", mock.AnythingOfType("membership.CardFace")).Return([]byte("png"), nil)
		blobs.On("Put", mock.Anything, key, []byte("png"), CardImageContentType).Return("https://cdn.test/"+key, nil)
		cards.On("MarkRendered", mock.Anything, card.ID, 1, key, "https://cdn.test/"+key).Return(false, nil)

		stored, err := registry.RefreshImage(ctx, client.ID)
		require.NoError(t, err)
		assert.False(t, stored)
		cards.AssertExpectations(t)
		blobs.AssertExpectations(t)
	})
}
