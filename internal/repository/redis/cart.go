// Package redis implements the local durable cart store. The whole cart is
// serialized as one value under a fixed per-cart key and overwritten on every
// mutation.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chronos-watches/storefront/internal/entity"
	"github.com/chronos-watches/storefront/internal/repository"
)

const cartKeyPrefix = "chronos:cart:"

// Abandoned carts expire after thirty days.
const cartTTL = 30 * 24 * time.Hour

type cartStore struct {
	client *redis.Client
}

// NewCartStore creates a CartStore backed by Redis.
func NewCartStore(client *redis.Client) repository.CartStore {
	return &cartStore{client: client}
}

// NewClient connects to Redis from a URL, applying the given timeouts.
func NewClient(url string, dialTimeout, rwTimeout time.Duration) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = rwTimeout
	opts.WriteTimeout = rwTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *cartStore) Load(ctx context.Context, cartID string) (entity.Cart, error) {
	payload, err := s.client.Get(ctx, cartKeyPrefix+cartID).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.NewCart(), nil
	}
	if err != nil {
		return entity.NewCart(), fmt.Errorf("load cart: %w: %v", repository.ErrBackendUnavailable, err)
	}

	var cart entity.Cart
	if err := json.Unmarshal(payload, &cart); err != nil {
		slog.Warn("Malformed cart payload, starting fresh", "cart_id", cartID, "err", err)
		return entity.NewCart(), nil
	}
	if cart.Items == nil {
		cart.Items = []entity.CartItem{}
	}
	// Stored totals are never trusted.
	cart.RecomputeTotals()
	return cart, nil
}

func (s *cartStore) Save(ctx context.Context, cartID string, cart entity.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+cartID, payload, cartTTL).Err(); err != nil {
		return fmt.Errorf("save cart: %w: %v", repository.ErrBackendUnavailable, err)
	}
	return nil
}
