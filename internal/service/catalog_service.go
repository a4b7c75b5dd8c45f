package service

import (
	"context"
	"log/slog"

	"github.com/chronos-watches/storefront/internal/entity"
	"github.com/chronos-watches/storefront/internal/filter"
	"github.com/chronos-watches/storefront/internal/messaging"
	"github.com/chronos-watches/storefront/internal/repository"
	"github.com/google/uuid"
)

// CatalogService orchestrates product reads for the storefront. Backend
// failures never crash a read path: callers get a safe empty result together
// with the error so the view can offer a retry instead of a blank screen.
type CatalogService struct {
	products  repository.ProductRepository
	publisher messaging.Publisher
}

func NewCatalogService(products repository.ProductRepository, publisher messaging.Publisher) *CatalogService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &CatalogService{
		products:  products,
		publisher: publisher,
	}
}

// List returns the catalog filtered by the selection. When no facet is
// active the full set comes back in source order.
func (s *CatalogService) List(ctx context.Context, sel filter.Selection) ([]entity.Product, error) {
	all, err := s.products.FindAll(ctx)
	if err != nil {
		return []entity.Product{}, err
	}
	if !sel.IsActive() && sel.SortBy == filter.SortRelevance {
		return all, nil
	}
	return filter.Apply(sel, all), nil
}

// GetByID returns (nil, nil) for an unknown product so the caller can render
// a not-found state.
func (s *CatalogService) GetByID(ctx context.Context, id int) (*entity.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *CatalogService) GetByCategory(ctx context.Context, category string) ([]entity.Product, error) {
	return s.products.FindByCategory(ctx, category)
}

// Search matches the query case-insensitively against brand, model and
// description. An empty query matches the whole catalog.
func (s *CatalogService) Search(ctx context.Context, query string) ([]entity.Product, error) {
	return s.products.Search(ctx, query)
}

// GetFeatured returns curated products for the homepage, capped at eight.
func (s *CatalogService) GetFeatured(ctx context.Context) ([]entity.Product, error) {
	return s.products.FindFeatured(ctx)
}

// GetRelated returns up to limit products sharing the reference product's
// brand or category, never including the product itself. An unknown
// reference product yields an empty result, not an error.
func (s *CatalogService) GetRelated(ctx context.Context, productID, limit int) ([]entity.Product, error) {
	if limit <= 0 {
		limit = 4
	}

	current, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return []entity.Product{}, err
	}
	if current == nil {
		return []entity.Product{}, nil
	}

	all, err := s.products.FindAll(ctx)
	if err != nil {
		return []entity.Product{}, err
	}

	related := make([]entity.Product, 0, limit)
	for _, p := range all {
		if p.ID == productID {
			continue
		}
		if p.Brand == current.Brand || p.Category == current.Category {
			related = append(related, p)
			if len(related) == limit {
				break
			}
		}
	}
	return related, nil
}

// Brands returns the sorted distinct brand facet values for the sidebar.
func (s *CatalogService) Brands(ctx context.Context) ([]string, error) {
	return s.products.Brands(ctx)
}

// Categories returns the sorted distinct category facet values.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.products.Categories(ctx)
}

// Create adds a product through the admin surface.
func (s *CatalogService) Create(ctx context.Context, p entity.Product) (*entity.Product, error) {
	created, err := s.products.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, created.ID)
	return created, nil
}

// Update changes price/stock/flags through the admin surface. Returns
// (nil, nil) when the product does not exist.
func (s *CatalogService) Update(ctx context.Context, id int, upd repository.ProductUpdate) (*entity.Product, error) {
	updated, err := s.products.Update(ctx, id, upd)
	if err != nil || updated == nil {
		return updated, err
	}
	s.publishUpdated(ctx, id)
	return updated, nil
}

// Delete removes a product through the admin surface.
func (s *CatalogService) Delete(ctx context.Context, id int) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.publishUpdated(ctx, id)
	return nil
}

// publishUpdated is best-effort: a broker outage must not fail an admin
// write that already committed.
func (s *CatalogService) publishUpdated(ctx context.Context, productID int) {
	event := entity.ProductUpdated{ProductID: productID, OccurredAt: now()}
	if err := s.publisher.PublishEvent(ctx, messaging.TopicCatalogUpdated, uuid.NewString(), event); err != nil {
		slog.Error("Failed to publish ProductUpdated", "product_id", productID, "err", err)
	}
}
