// Package recordstore implements the repositories against the remote
// table-record backend. Raw records carry JSON-encoded strings for array and
// object fields; this package is the typed deserialization boundary and the
// domain model never sees a serialized string.
package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/chronos-watches/storefront/internal/entity"
	"github.com/chronos-watches/storefront/internal/recordstore"
	"github.com/chronos-watches/storefront/internal/repository"
)

const productsTable = "products"

type productRepository struct {
	client *recordstore.Client
}

// NewProductRepository creates a ProductRepository backed by the record store.
func NewProductRepository(client *recordstore.Client) repository.ProductRepository {
	return &productRepository{client: client}
}

// rawProduct mirrors the stored record layout. Images, band options and
// specifications arrive as JSON-encoded strings.
type rawProduct struct {
	ID              int     `json:"Id"`
	Brand           string  `json:"brand"`
	Model           string  `json:"model"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Movement        string  `json:"movement"`
	CaseMaterial    string  `json:"caseMaterial"`
	BandMaterial    string  `json:"bandMaterial"`
	WaterResistance string  `json:"waterResistance"`
	Price           float64 `json:"price"`
	OriginalPrice   float64 `json:"originalPrice"`
	CaseSize        float64 `json:"caseSize"`
	Images          string  `json:"images"`
	BandOptions     string  `json:"bandOptions"`
	Specifications  string  `json:"specifications"`
	InStock         bool    `json:"inStock"`
	StockCount      int     `json:"stockCount"`
	Featured        bool    `json:"featured"`
}

// normalize decodes the serialized fields into their structured form. A
// field that fails to parse falls back to an empty default instead of
// aborting the whole read.
func (r rawProduct) normalize() entity.Product {
	p := entity.Product{
		ID:              r.ID,
		Brand:           r.Brand,
		Model:           r.Model,
		Description:     r.Description,
		Category:        r.Category,
		Movement:        r.Movement,
		CaseMaterial:    r.CaseMaterial,
		BandMaterial:    r.BandMaterial,
		WaterResistance: r.WaterResistance,
		Price:           r.Price,
		OriginalPrice:   r.OriginalPrice,
		CaseSize:        r.CaseSize,
		InStock:         r.InStock,
		StockCount:      r.StockCount,
		Featured:        r.Featured,
		Images:          []string{},
		BandOptions:     []string{},
		Specifications:  map[string]string{},
	}

	if r.Images != "" {
		if err := json.Unmarshal([]byte(r.Images), &p.Images); err != nil {
			slog.Debug("Malformed images field, using empty default", "product_id", r.ID, "err", err)
			p.Images = []string{}
		}
	}
	if r.BandOptions != "" {
		if err := json.Unmarshal([]byte(r.BandOptions), &p.BandOptions); err != nil {
			slog.Debug("Malformed bandOptions field, using empty default", "product_id", r.ID, "err", err)
			p.BandOptions = []string{}
		}
	}
	if r.Specifications != "" {
		if err := json.Unmarshal([]byte(r.Specifications), &p.Specifications); err != nil {
			slog.Debug("Malformed specifications field, using empty default", "product_id", r.ID, "err", err)
			p.Specifications = map[string]string{}
		}
	}
	return p
}

// serialize converts a product back into the stored record layout.
func serialize(p entity.Product) rawProduct {
	images, _ := json.Marshal(p.Images)
	bands, _ := json.Marshal(p.BandOptions)
	specs, _ := json.Marshal(p.Specifications)
	return rawProduct{
		ID:              p.ID,
		Brand:           p.Brand,
		Model:           p.Model,
		Description:     p.Description,
		Category:        p.Category,
		Movement:        p.Movement,
		CaseMaterial:    p.CaseMaterial,
		BandMaterial:    p.BandMaterial,
		WaterResistance: p.WaterResistance,
		Price:           p.Price,
		OriginalPrice:   p.OriginalPrice,
		CaseSize:        p.CaseSize,
		Images:          string(images),
		BandOptions:     string(bands),
		Specifications:  string(specs),
		InStock:         p.InStock,
		StockCount:      p.StockCount,
		Featured:        p.Featured,
	}
}

func decodeProducts(records []json.RawMessage) []entity.Product {
	products := make([]entity.Product, 0, len(records))
	for _, rec := range records {
		var raw rawProduct
		if err := json.Unmarshal(rec, &raw); err != nil {
			slog.Warn("Skipping malformed product record", "err", err)
			continue
		}
		products = append(products, raw.normalize())
	}
	return products
}

// mapErr translates record-store errors into the repository taxonomy.
func mapErr(op string, err error) error {
	if errors.Is(err, recordstore.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, repository.ErrBackendUnavailable, err)
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	records, err := r.client.Fetch(ctx, productsTable, recordstore.Query{})
	if err != nil {
		return []entity.Product{}, mapErr("FindAll", err)
	}
	return decodeProducts(records), nil
}

func (r *productRepository) FindByID(ctx context.Context, id int) (*entity.Product, error) {
	rec, err := r.client.GetByID(ctx, productsTable, strconv.Itoa(id))
	if errors.Is(err, recordstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr("FindByID", err)
	}

	var raw rawProduct
	if err := json.Unmarshal(rec, &raw); err != nil {
		slog.Warn("Malformed product record", "product_id", id, "err", err)
		return nil, nil
	}
	p := raw.normalize()
	return &p, nil
}

func (r *productRepository) FindByCategory(ctx context.Context, category string) ([]entity.Product, error) {
	q := recordstore.Query{}.Where1("category", recordstore.OpContains, category)
	records, err := r.client.Fetch(ctx, productsTable, q)
	if err != nil {
		return []entity.Product{}, mapErr("FindByCategory", err)
	}

	// The backend's contains predicate may be case-sensitive; re-check
	// client-side so "dress" matches "Dress".
	out := make([]entity.Product, 0, len(records))
	for _, p := range decodeProducts(records) {
		if strings.EqualFold(p.Category, category) ||
			strings.Contains(strings.ToLower(p.Category), strings.ToLower(category)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *productRepository) Search(ctx context.Context, query string) ([]entity.Product, error) {
	q := recordstore.Query{}.WhereAny(
		recordstore.Predicate{Field: "brand", Operator: recordstore.OpContains, Value: query},
		recordstore.Predicate{Field: "model", Operator: recordstore.OpContains, Value: query},
		recordstore.Predicate{Field: "description", Operator: recordstore.OpContains, Value: query},
	)
	records, err := r.client.Fetch(ctx, productsTable, q)
	if err != nil {
		return []entity.Product{}, mapErr("Search", err)
	}

	term := strings.ToLower(query)
	out := make([]entity.Product, 0, len(records))
	for _, p := range decodeProducts(records) {
		if strings.Contains(strings.ToLower(p.Brand), term) ||
			strings.Contains(strings.ToLower(p.Model), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *productRepository) FindFeatured(ctx context.Context) ([]entity.Product, error) {
	q := recordstore.Query{Limit: 8}.Where1("featured", recordstore.OpEqual, true)
	records, err := r.client.Fetch(ctx, productsTable, q)
	if err != nil {
		return []entity.Product{}, mapErr("FindFeatured", err)
	}
	products := decodeProducts(records)
	if len(products) > 8 {
		products = products[:8]
	}
	return products, nil
}

func (r *productRepository) Brands(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "brand")
}

func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "category")
}

func (r *productRepository) distinct(ctx context.Context, field string) ([]string, error) {
	records, err := r.client.Fetch(ctx, productsTable, recordstore.Query{Fields: []string{field}})
	if err != nil {
		return []string{}, mapErr("distinct "+field, err)
	}

	seen := map[string]bool{}
	var values []string
	for _, rec := range records {
		// Backends are not required to honor the field projection, so
		// decode loosely and pick the one field out.
		var m map[string]any
		if err := json.Unmarshal(rec, &m); err != nil {
			continue
		}
		if v, ok := m[field].(string); ok && v != "" && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values, nil
}

func (r *productRepository) Create(ctx context.Context, p entity.Product) (*entity.Product, error) {
	rec, err := r.client.Create(ctx, productsTable, serialize(p))
	if err != nil {
		return nil, mapErr("Create", err)
	}
	if rec == nil {
		created := p.Clone()
		return &created, nil
	}
	var raw rawProduct
	if err := json.Unmarshal(rec, &raw); err != nil {
		created := p.Clone()
		return &created, nil
	}
	created := raw.normalize()
	return &created, nil
}

func (r *productRepository) Update(ctx context.Context, id int, upd repository.ProductUpdate) (*entity.Product, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	if upd.Price != nil {
		current.Price = *upd.Price
	}
	if upd.StockCount != nil {
		current.StockCount = *upd.StockCount
	}
	if upd.InStock != nil {
		current.InStock = *upd.InStock
	}
	if upd.Featured != nil {
		current.Featured = *upd.Featured
	}

	if _, err := r.client.Update(ctx, productsTable, strconv.Itoa(id), serialize(*current)); err != nil {
		return nil, mapErr("Update", err)
	}
	return current, nil
}

func (r *productRepository) Delete(ctx context.Context, id int) error {
	if err := r.client.Delete(ctx, productsTable, strconv.Itoa(id)); err != nil {
		return mapErr("Delete", err)
	}
	return nil
}
