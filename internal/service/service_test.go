package service

import (
	"context"
	"errors"
	"sync"

	"github.com/chronos-watches/storefront/internal/entity"
	"github.com/chronos-watches/storefront/internal/repository"
)

// fakeProductRepo serves a fixed product slice in source order.
type fakeProductRepo struct {
	products []entity.Product
	err      error
}

func (f *fakeProductRepo) FindAll(context.Context) ([]entity.Product, error) {
	if f.err != nil {
		return []entity.Product{}, f.err
	}
	return entity.CloneAll(f.products), nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, id int) (*entity.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.products {
		if p.ID == id {
			p := p.Clone()
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) FindByCategory(ctx context.Context, category string) ([]entity.Product, error) {
	out := []entity.Product{}
	for _, p := range f.products {
		if p.Category == category {
			out = append(out, p.Clone())
		}
	}
	return out, f.err
}

func (f *fakeProductRepo) Search(_ context.Context, query string) ([]entity.Product, error) {
	if f.err != nil {
		return []entity.Product{}, f.err
	}
	if query == "" {
		return entity.CloneAll(f.products), nil
	}
	out := []entity.Product{}
	for _, p := range f.products {
		if p.Brand == query || p.Model == query {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (f *fakeProductRepo) FindFeatured(context.Context) ([]entity.Product, error) {
	out := []entity.Product{}
	for _, p := range f.products {
		if p.Featured {
			out = append(out, p.Clone())
		}
	}
	return out, f.err
}

func (f *fakeProductRepo) Brands(context.Context) ([]string, error)     { return nil, f.err }
func (f *fakeProductRepo) Categories(context.Context) ([]string, error) { return nil, f.err }

func (f *fakeProductRepo) Create(_ context.Context, p entity.Product) (*entity.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.products = append(f.products, p)
	return &p, nil
}

func (f *fakeProductRepo) Update(ctx context.Context, id int, upd repository.ProductUpdate) (*entity.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			if upd.Price != nil {
				f.products[i].Price = *upd.Price
			}
			if upd.StockCount != nil {
				f.products[i].StockCount = *upd.StockCount
			}
			p := f.products[i].Clone()
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id int) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// fakeCartStore keeps carts in a map; saveErr simulates persistence outages.
type fakeCartStore struct {
	mu      sync.Mutex
	carts   map[string]entity.Cart
	saveErr error
	saves   int
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: map[string]entity.Cart{}}
}

func (f *fakeCartStore) Load(_ context.Context, cartID string) (entity.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[cartID]
	if !ok {
		return entity.NewCart(), nil
	}
	return cart.Clone(), nil
}

func (f *fakeCartStore) Save(_ context.Context, cartID string, cart entity.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.carts[cartID] = cart.Clone()
	return nil
}

// capturingPublisher records every published event.
type capturingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
	err    error
}

func (p *capturingPublisher) PublishEvent(_ context.Context, topic, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

var errBackendDown = errors.New("backend down")
