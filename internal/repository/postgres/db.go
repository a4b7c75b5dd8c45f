package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

// InitDB connects to Postgres, runs migrations and seeds the catalog when
// empty. This is the local fallback backend used when no record store is
// configured.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database connected and migrated")
	return db, nil
}

func migrateDB(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id INT PRIMARY KEY,
			brand TEXT NOT NULL,
			model TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			movement TEXT NOT NULL DEFAULT '',
			case_material TEXT NOT NULL DEFAULT '',
			band_material TEXT NOT NULL DEFAULT '',
			water_resistance TEXT NOT NULL DEFAULT '',
			price DOUBLE PRECISION NOT NULL DEFAULT 0,
			original_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			case_size DOUBLE PRECISION NOT NULL DEFAULT 0,
			images TEXT[] NOT NULL DEFAULT '{}',
			band_options TEXT[] NOT NULL DEFAULT '{}',
			specifications TEXT NOT NULL DEFAULT '{}',
			in_stock BOOLEAN NOT NULL DEFAULT TRUE,
			stock_count INT NOT NULL DEFAULT 0,
			featured BOOLEAN NOT NULL DEFAULT FALSE
		);
	`)
	return err
}
