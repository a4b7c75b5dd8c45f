package repository

import (
	"context"
	"errors"

	"github.com/chronos-watches/storefront/internal/entity"
)

// Error taxonomy shared by all repository implementations.
//
// ErrNotFound: the requested product or cart line is absent. Read paths
// return nil/no-op rather than treating this as fatal.
//
// ErrBackendUnavailable: the backing store could not serve the request.
// Callers receive a safe empty/default value together with this error so the
// view layer can distinguish "empty result" from "request failed".
//
// ErrCartPersist: a cart mutation was applied in memory but could not be
// persisted. The caller still gets the recomputed cart and can offer a
// retry instead of silently pretending the write succeeded.
var (
	ErrNotFound           = errors.New("not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrCartPersist        = errors.New("cart could not be persisted")
)

// ProductUpdate carries the mutable fields for the admin surface. Nil means
// "leave unchanged"; price and stock are the fields expected to change
// post-creation.
type ProductUpdate struct {
	Price      *float64 `json:"price,omitempty"`
	StockCount *int     `json:"stockCount,omitempty"`
	InStock    *bool    `json:"inStock,omitempty"`
	Featured   *bool    `json:"featured,omitempty"`
}

// ProductRepository translates domain queries into backend queries and hands
// out independent product copies.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]entity.Product, error)
	// FindByID returns (nil, nil) when the product does not exist, so
	// callers can render a not-found state without error plumbing.
	FindByID(ctx context.Context, id int) (*entity.Product, error)
	FindByCategory(ctx context.Context, category string) ([]entity.Product, error)
	Search(ctx context.Context, query string) ([]entity.Product, error)
	FindFeatured(ctx context.Context) ([]entity.Product, error)
	Brands(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]string, error)

	Create(ctx context.Context, p entity.Product) (*entity.Product, error)
	Update(ctx context.Context, id int, upd ProductUpdate) (*entity.Product, error)
	Delete(ctx context.Context, id int) error
}

// CartStore persists whole cart snapshots. Save overwrites the complete
// value; cart mutation logic lives in the cart service, which serializes
// read-modify-write cycles per cart ID.
type CartStore interface {
	// Load returns a fresh empty cart when none has been saved yet.
	Load(ctx context.Context, cartID string) (entity.Cart, error)
	Save(ctx context.Context, cartID string, cart entity.Cart) error
}
