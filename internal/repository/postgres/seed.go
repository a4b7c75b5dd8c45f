package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/chronos-watches/storefront/internal/entity"
)

// The static watch catalog shipped with the service, used to seed an empty
// database in the local fallback configuration.
//
//go:embed seed_products.json
var seedCatalog []byte

// Seed inserts the embedded catalog if the products table is empty.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	var products []entity.Product
	if err := json.Unmarshal(seedCatalog, &products); err != nil {
		return fmt.Errorf("decode seed catalog: %w", err)
	}

	for _, p := range products {
		specs, err := json.Marshal(p.Specifications)
		if err != nil {
			return fmt.Errorf("marshal specifications for product %d: %w", p.ID, err)
		}
		_, err = db.ExecContext(ctx, `
			INSERT INTO products (`+productColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
			p.ID, p.Brand, p.Model, p.Description, p.Category, p.Movement,
			p.CaseMaterial, p.BandMaterial, p.WaterResistance, p.Price, p.OriginalPrice,
			p.CaseSize, pq.Array(p.Images), pq.Array(p.BandOptions), string(specs),
			p.InStock, p.StockCount, p.Featured,
		)
		if err != nil {
			return fmt.Errorf("seed product %d: %w", p.ID, err)
		}
	}

	slog.Info("Seeded product catalog", "count", len(products))
	return nil
}
