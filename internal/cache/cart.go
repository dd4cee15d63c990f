// Package cache holds the redis-backed view cache for the cart page. The
// cache is best-effort: redis failures are logged and the caller falls back
// to the database.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// cart:view:{customer_id} -> rendered JSON of the customer's cart
const keyCartView = "cart:view:%s"

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

type CartView struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCartView(rdb *redis.Client, ttl time.Duration) *CartView {
	return &CartView{rdb: rdb, ttl: ttl}
}

func (c *CartView) Get(ctx context.Context, customerID string) ([]byte, bool) {
	b, err := c.rdb.Get(ctx, fmt.Sprintf(keyCartView, customerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("customer_id", customerID).Msg("cache: failed to read cart view")
		}
		return nil, false
	}
	return b, true
}

func (c *CartView) Set(ctx context.Context, customerID string, payload []byte) {
	if err := c.rdb.Set(ctx, fmt.Sprintf(keyCartView, customerID), payload, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("customer_id", customerID).Msg("cache: failed to store cart view")
	}
}

// Invalidate drops the cached cart view after any cart mutation or a
// successful order commit.
func (c *CartView) Invalidate(ctx context.Context, customerID string) {
	if err := c.rdb.Del(ctx, fmt.Sprintf(keyCartView, customerID)).Err(); err != nil {
		log.Warn().Err(err).Str("customer_id", customerID).Msg("cache: failed to invalidate cart view")
	}
}
