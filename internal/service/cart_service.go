package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chronos-watches/storefront/internal/entity"
	"github.com/chronos-watches/storefront/internal/messaging"
	"github.com/chronos-watches/storefront/internal/repository"
)

// hook for tests
var now = time.Now

// CartService orchestrates shopping cart mutations. Every mutation runs a
// read-modify-write cycle against the cart store; cycles for the same cart
// ID are serialized through a per-cart lock so two rapid quantity clicks
// compose instead of the second overwriting the first.
type CartService struct {
	store     repository.CartStore
	products  repository.ProductRepository
	publisher messaging.Publisher

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCartService(store repository.CartStore, products repository.ProductRepository, publisher messaging.Publisher) *CartService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &CartService{
		store:     store,
		products:  products,
		publisher: publisher,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *CartService) lock(cartID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[cartID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[cartID] = l
	}
	return l
}

// Get returns the current persisted cart state with totals recomputed.
func (s *CartService) Get(ctx context.Context, cartID string) (entity.Cart, error) {
	return s.store.Load(ctx, cartID)
}

// AddItem merges quantity into the line keyed by (productID, selectedBand),
// or creates a new line snapshotting the product's price, brand, model and
// images. An unknown product returns the unchanged cart and ErrNotFound.
func (s *CartService) AddItem(ctx context.Context, cartID string, productID, quantity int, selectedBand string) (entity.Cart, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return entity.NewCart(), err
	}
	if product == nil {
		cart, _ := s.store.Load(ctx, cartID)
		return cart, fmt.Errorf("add item: product %d: %w", productID, repository.ErrNotFound)
	}

	return s.mutate(ctx, cartID, func(cart *entity.Cart) entity.Event {
		cart.Add(*product, quantity, selectedBand)
		return entity.CartItemAdded{
			CartID:       cartID,
			ProductID:    productID,
			SelectedBand: selectedBand,
			Quantity:     quantity,
			Price:        product.Price,
			OccurredAt:   now(),
		}
	})
}

// UpdateQuantity sets the line's quantity; zero or below removes the line.
// A missing line leaves the cart unchanged (no-op, not an error).
func (s *CartService) UpdateQuantity(ctx context.Context, cartID string, productID, quantity int, selectedBand string) (entity.Cart, error) {
	return s.mutate(ctx, cartID, func(cart *entity.Cart) entity.Event {
		if !cart.SetQuantity(productID, quantity, selectedBand) {
			return nil
		}
		if quantity <= 0 {
			return entity.CartItemRemoved{
				CartID:       cartID,
				ProductID:    productID,
				SelectedBand: selectedBand,
				OccurredAt:   now(),
			}
		}
		return nil
	})
}

// RemoveItem deletes the matching line; removing an absent line is
// idempotent.
func (s *CartService) RemoveItem(ctx context.Context, cartID string, productID int, selectedBand string) (entity.Cart, error) {
	return s.mutate(ctx, cartID, func(cart *entity.Cart) entity.Event {
		before := len(cart.Items)
		cart.Remove(productID, selectedBand)
		if len(cart.Items) == before {
			return nil
		}
		return entity.CartItemRemoved{
			CartID:       cartID,
			ProductID:    productID,
			SelectedBand: selectedBand,
			OccurredAt:   now(),
		}
	})
}

// Clear removes all lines.
func (s *CartService) Clear(ctx context.Context, cartID string) (entity.Cart, error) {
	return s.mutate(ctx, cartID, func(cart *entity.Cart) entity.Event {
		cart.Clear()
		return entity.CartCleared{CartID: cartID, OccurredAt: now()}
	})
}

// mutate runs one serialized read-modify-write cycle. The mutated cart is
// always returned; when persistence fails the error wraps ErrCartPersist so
// the caller can show the new state with a retry affordance rather than
// silently pretending the write succeeded.
func (s *CartService) mutate(ctx context.Context, cartID string, fn func(cart *entity.Cart) entity.Event) (entity.Cart, error) {
	l := s.lock(cartID)
	l.Lock()
	defer l.Unlock()

	cart, err := s.store.Load(ctx, cartID)
	if err != nil {
		return cart, err
	}

	event := fn(&cart)

	if err := s.store.Save(ctx, cartID, cart); err != nil {
		slog.Error("Failed to persist cart", "cart_id", cartID, "err", err)
		return cart, fmt.Errorf("%w: %v", repository.ErrCartPersist, err)
	}

	if event != nil {
		if err := s.publisher.PublishEvent(ctx, messaging.TopicCartActivity, cartID, event); err != nil {
			slog.Error("Failed to publish cart event", "cart_id", cartID, "event", event.EventType(), "err", err)
		}
	}
	return cart, nil
}
