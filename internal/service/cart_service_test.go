package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronos-watches/storefront/internal/entity"
	"github.com/chronos-watches/storefront/internal/messaging"
	"github.com/chronos-watches/storefront/internal/repository"
)

func cartFixtures() (*fakeCartStore, *fakeProductRepo) {
	store := newFakeCartStore()
	products := &fakeProductRepo{products: []entity.Product{
		{ID: 1, Brand: "Meridian", Model: "Deep Blue", Price: 1000, InStock: true, StockCount: 20, Images: []string{"deep-blue.jpg"}},
		{ID: 2, Brand: "Aurelle", Model: "Petite", Price: 950, InStock: true, StockCount: 3},
	}}
	return store, products
}

func TestCartAddItemPersistsAndPublishes(t *testing.T) {
	store, products := cartFixtures()
	pub := &capturingPublisher{}
	svc := NewCartService(store, products, pub)

	cart, err := svc.AddItem(context.Background(), "cart-1", 1, 2, "Steel")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 1000.0, cart.Items[0].Price)
	assert.Equal(t, 2160.0, cart.Total)

	persisted, err := store.Load(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Equal(t, cart.Total, persisted.Total)

	require.Len(t, pub.events, 1)
	assert.Equal(t, messaging.TopicCartActivity, pub.topics[0])
	added, ok := pub.events[0].(entity.CartItemAdded)
	require.True(t, ok)
	assert.Equal(t, 1, added.ProductID)
	assert.Equal(t, "Steel", added.SelectedBand)
}

func TestCartAddItemUnknownProduct(t *testing.T) {
	store, products := cartFixtures()
	svc := NewCartService(store, products, nil)

	_, err := svc.AddItem(context.Background(), "cart-1", 1, 1, "Steel")
	require.NoError(t, err)

	cart, err := svc.AddItem(context.Background(), "cart-1", 999, 1, "Steel")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	// The existing cart state comes back unchanged.
	assert.Len(t, cart.Items, 1)
}

func TestCartUpdateQuantityRemovalPublishesRemoved(t *testing.T) {
	store, products := cartFixtures()
	pub := &capturingPublisher{}
	svc := NewCartService(store, products, pub)

	_, err := svc.AddItem(context.Background(), "cart-1", 1, 1, "Steel")
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(context.Background(), "cart-1", 1, 0, "Steel")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	require.Len(t, pub.events, 2)
	_, ok := pub.events[1].(entity.CartItemRemoved)
	assert.True(t, ok)
}

func TestCartUpdateQuantityMissingLineIsNoOp(t *testing.T) {
	store, products := cartFixtures()
	svc := NewCartService(store, products, nil)

	_, err := svc.AddItem(context.Background(), "cart-1", 1, 2, "Steel")
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(context.Background(), "cart-1", 999, 5, "Steel")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCartRemoveItemIsIdempotent(t *testing.T) {
	store, products := cartFixtures()
	pub := &capturingPublisher{}
	svc := NewCartService(store, products, pub)

	_, err := svc.AddItem(context.Background(), "cart-1", 1, 1, "Steel")
	require.NoError(t, err)

	cart, err := svc.RemoveItem(context.Background(), "cart-1", 1, "Steel")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = svc.RemoveItem(context.Background(), "cart-1", 1, "Steel")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// One add event plus exactly one removed event; the second remove
	// published nothing.
	assert.Len(t, pub.events, 2)
}

func TestCartClear(t *testing.T) {
	store, products := cartFixtures()
	svc := NewCartService(store, products, nil)

	_, err := svc.AddItem(context.Background(), "cart-1", 1, 1, "Steel")
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "cart-1", 2, 1, "")
	require.NoError(t, err)

	cart, err := svc.Clear(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.Total)
}

func TestCartPersistFailureReturnsCartAndDegradedError(t *testing.T) {
	store, products := cartFixtures()
	store.saveErr = errBackendDown
	svc := NewCartService(store, products, nil)

	cart, err := svc.AddItem(context.Background(), "cart-1", 1, 2, "Steel")
	assert.ErrorIs(t, err, repository.ErrCartPersist)

	// The mutation is visible in the returned cart even though nothing was
	// persisted.
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2160.0, cart.Total)

	persisted, loadErr := store.Load(context.Background(), "cart-1")
	require.NoError(t, loadErr)
	assert.Empty(t, persisted.Items)
}

func TestCartConcurrentAddsCompose(t *testing.T) {
	store, products := cartFixtures()
	svc := NewCartService(store, products, nil)

	const adds = 10
	var wg sync.WaitGroup
	for range adds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(context.Background(), "cart-1", 1, 1, "Steel")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := svc.Get(context.Background(), "cart-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, adds, cart.Items[0].Quantity)
	assert.Equal(t, adds, store.saves)
}

func TestCartsAreIsolated(t *testing.T) {
	store, products := cartFixtures()
	svc := NewCartService(store, products, nil)

	_, err := svc.AddItem(context.Background(), "cart-a", 1, 1, "Steel")
	require.NoError(t, err)

	cart, err := svc.Get(context.Background(), "cart-b")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
