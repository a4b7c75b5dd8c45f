package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/chronos-watches/storefront/internal/entity"
	"github.com/chronos-watches/storefront/internal/repository"
)

const productColumns = `id, brand, model, description, category, movement,
	case_material, band_material, water_resistance, price, original_price,
	case_size, images, band_options, specifications, in_stock, stock_count, featured`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a ProductRepository backed by Postgres.
func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (entity.Product, error) {
	var p entity.Product
	var images, bands pq.StringArray
	var specs string

	err := row.Scan(
		&p.ID, &p.Brand, &p.Model, &p.Description, &p.Category, &p.Movement,
		&p.CaseMaterial, &p.BandMaterial, &p.WaterResistance, &p.Price, &p.OriginalPrice,
		&p.CaseSize, &images, &bands, &specs, &p.InStock, &p.StockCount, &p.Featured,
	)
	if err != nil {
		return entity.Product{}, err
	}

	p.Images = []string(images)
	p.BandOptions = []string(bands)
	p.Specifications = map[string]string{}
	if specs != "" {
		if err := json.Unmarshal([]byte(specs), &p.Specifications); err != nil {
			slog.Debug("Malformed specifications column, using empty default", "product_id", p.ID, "err", err)
			p.Specifications = map[string]string{}
		}
	}
	return p, nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return []entity.Product{}, fmt.Errorf("query products: %w: %v", repository.ErrBackendUnavailable, err)
	}
	defer rows.Close()

	products := []entity.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return []entity.Product{}, fmt.Errorf("scan product: %w: %v", repository.ErrBackendUnavailable, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return []entity.Product{}, fmt.Errorf("iterate products: %w: %v", repository.ErrBackendUnavailable, err)
	}
	return products, nil
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	return r.queryProducts(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
}

func (r *productRepository) FindByID(ctx context.Context, id int) (*entity.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product %d: %w: %v", id, repository.ErrBackendUnavailable, err)
	}
	return &p, nil
}

func (r *productRepository) FindByCategory(ctx context.Context, category string) ([]entity.Product, error) {
	return r.queryProducts(ctx,
		"SELECT "+productColumns+" FROM products WHERE category ILIKE '%' || $1 || '%' ORDER BY id",
		category)
}

func (r *productRepository) Search(ctx context.Context, query string) ([]entity.Product, error) {
	return r.queryProducts(ctx,
		"SELECT "+productColumns+` FROM products
		 WHERE brand ILIKE '%' || $1 || '%'
		    OR model ILIKE '%' || $1 || '%'
		    OR description ILIKE '%' || $1 || '%'
		 ORDER BY id`,
		query)
}

func (r *productRepository) FindFeatured(ctx context.Context) ([]entity.Product, error) {
	return r.queryProducts(ctx,
		"SELECT "+productColumns+" FROM products WHERE featured ORDER BY id LIMIT 8")
}

func (r *productRepository) Brands(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "brand")
}

func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "category")
}

func (r *productRepository) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT DISTINCT %s FROM products ORDER BY %s", column, column))
	if err != nil {
		return []string{}, fmt.Errorf("distinct %s: %w: %v", column, repository.ErrBackendUnavailable, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return []string{}, fmt.Errorf("scan %s: %w: %v", column, repository.ErrBackendUnavailable, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (r *productRepository) Create(ctx context.Context, p entity.Product) (*entity.Product, error) {
	specs, err := json.Marshal(p.Specifications)
	if err != nil {
		return nil, fmt.Errorf("marshal specifications: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		p.ID, p.Brand, p.Model, p.Description, p.Category, p.Movement,
		p.CaseMaterial, p.BandMaterial, p.WaterResistance, p.Price, p.OriginalPrice,
		p.CaseSize, pq.Array(p.Images), pq.Array(p.BandOptions), string(specs),
		p.InStock, p.StockCount, p.Featured,
	)
	if err != nil {
		return nil, fmt.Errorf("create product: %w: %v", repository.ErrBackendUnavailable, err)
	}
	created := p.Clone()
	return &created, nil
}

func (r *productRepository) Update(ctx context.Context, id int, upd repository.ProductUpdate) (*entity.Product, error) {
	sets := []string{}
	args := []any{}
	n := 0

	add := func(column string, value any) {
		n++
		sets = append(sets, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.StockCount != nil {
		add("stock_count", *upd.StockCount)
	}
	if upd.InStock != nil {
		add("in_stock", *upd.InStock)
	}
	if upd.Featured != nil {
		add("featured", *upd.Featured)
	}
	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	n++
	args = append(args, id)
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d", strings.Join(sets, ", "), n)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update product %d: %w: %v", id, repository.ErrBackendUnavailable, err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *productRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w: %v", id, repository.ErrBackendUnavailable, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("delete product %d: %w", id, repository.ErrNotFound)
	}
	return nil
}
