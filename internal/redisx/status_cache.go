package redisx

import (
	"context"
	"fmt"

	"github.com/LaZyMugen/shopnexa-sub000/internal/orders"
	"github.com/redis/go-redis/v9"
)

// StatusCache keeps order status in redis with a short TTL. Writes are
// best effort; a failed write only means the next read hits the DB.
type StatusCache struct{ R *redis.Client }

var _ orders.StatusCache = (*StatusCache)(nil)

func (c *StatusCache) SetStatus(ctx context.Context, orderID string, status orders.Status) {
	key := fmt.Sprintf(KeyOrderStatus, orderID)
	_ = c.R.Set(ctx, key, string(status), TTLStatusCache).Err()
}

func (c *StatusCache) GetStatus(ctx context.Context, orderID string) (orders.Status, bool) {
	key := fmt.Sprintf(KeyOrderStatus, orderID)
	s, err := c.R.Get(ctx, key).Result()
	if err != nil || s == "" {
		return "", false
	}
	return orders.Status(s), true
}
