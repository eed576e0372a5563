package repo

import (
	"context"
	"time"

	"delivery-order-system/shared/pkg/cache"
)

// OrdersCached is a Redis read-through for the hot status lookup. The
// tracking projector refreshes the same key on every applied event.
type OrdersCached struct {
	PG    *OrdersPG
	Redis *cache.Redis
	TTL   time.Duration
}

func (r *OrdersCached) GetStatus(ctx context.Context, orderID string) (string, error) {
	s, err := r.Redis.GetString(ctx, cache.OrderStatusKey(orderID))
	if err == nil {
		return s, nil
	}

	s, err = r.PG.GetStatus(ctx, orderID)
	if err != nil {
		return "", err
	}

	_ = r.Redis.SetString(ctx, cache.OrderStatusKey(orderID), s, r.TTL)
	return s, nil
}
