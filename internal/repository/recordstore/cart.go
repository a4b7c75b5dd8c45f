package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chronos-watches/storefront/internal/entity"
	"github.com/chronos-watches/storefront/internal/recordstore"
	"github.com/chronos-watches/storefront/internal/repository"
)

const cartsTable = "user_carts"

type cartStore struct {
	client *recordstore.Client
}

// NewCartStore creates a CartStore backed by the record store.
func NewCartStore(client *recordstore.Client) repository.CartStore {
	return &cartStore{client: client}
}

// rawCart mirrors the stored record: the line items are a JSON-encoded
// string, totals are stored for display-side reads but recomputed on load.
type rawCart struct {
	ID       string  `json:"Id"`
	Items    string  `json:"items"`
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

func (s *cartStore) Load(ctx context.Context, cartID string) (entity.Cart, error) {
	rec, err := s.client.GetByID(ctx, cartsTable, cartID)
	if errors.Is(err, recordstore.ErrNotFound) {
		return entity.NewCart(), nil
	}
	if err != nil {
		return entity.NewCart(), fmt.Errorf("load cart: %w: %v", repository.ErrBackendUnavailable, err)
	}

	var raw rawCart
	if err := json.Unmarshal(rec, &raw); err != nil {
		slog.Warn("Malformed cart record, starting fresh", "cart_id", cartID, "err", err)
		return entity.NewCart(), nil
	}

	cart := entity.NewCart()
	if raw.Items != "" {
		if err := json.Unmarshal([]byte(raw.Items), &cart.Items); err != nil {
			slog.Warn("Malformed cart items field, using empty default", "cart_id", cartID, "err", err)
			cart.Items = []entity.CartItem{}
		}
	}
	// Stored totals are never trusted.
	cart.RecomputeTotals()
	return cart, nil
}

func (s *cartStore) Save(ctx context.Context, cartID string, cart entity.Cart) error {
	items, err := json.Marshal(cart.Items)
	if err != nil {
		return fmt.Errorf("marshal cart items: %w", err)
	}
	raw := rawCart{
		ID:       cartID,
		Items:    string(items),
		Subtotal: cart.Subtotal,
		Tax:      cart.Tax,
		Total:    cart.Total,
	}

	_, err = s.client.Update(ctx, cartsTable, cartID, raw)
	if errors.Is(err, recordstore.ErrNotFound) {
		_, err = s.client.Create(ctx, cartsTable, raw)
	}
	if err != nil {
		return fmt.Errorf("save cart: %w: %v", repository.ErrBackendUnavailable, err)
	}
	return nil
}
