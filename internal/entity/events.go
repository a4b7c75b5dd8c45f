package entity

import "time"

// Event represents a domain event published for downstream consumers.
type Event interface {
	EventType() string
}

// CartItemAdded is emitted when a line is added to (or merged into) a cart.
type CartItemAdded struct {
	CartID       string    `json:"cart_id"`
	ProductID    int       `json:"product_id"`
	SelectedBand string    `json:"selected_band"`
	Quantity     int       `json:"quantity"`
	Price        float64   `json:"price"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (e CartItemAdded) EventType() string { return "CartItemAdded" }

// CartItemRemoved is emitted when a line leaves the cart, whether through an
// explicit remove or a quantity update to zero.
type CartItemRemoved struct {
	CartID       string    `json:"cart_id"`
	ProductID    int       `json:"product_id"`
	SelectedBand string    `json:"selected_band"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (e CartItemRemoved) EventType() string { return "CartItemRemoved" }

// CartCleared is emitted when all lines are removed at once.
type CartCleared struct {
	CartID     string    `json:"cart_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e CartCleared) EventType() string { return "CartCleared" }

// ProductUpdated is emitted when the admin surface changes a product, so
// other systems (search indexers, caches) can pick up price/stock changes.
type ProductUpdated struct {
	ProductID  int       `json:"product_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e ProductUpdated) EventType() string { return "ProductUpdated" }
