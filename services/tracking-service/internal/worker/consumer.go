package worker

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"delivery-order-system/services/tracking-service/internal/repo"
	"delivery-order-system/services/tracking-service/internal/ws"
	"delivery-order-system/shared/pkg/cache"
	"delivery-order-system/shared/pkg/models"
	"delivery-order-system/shared/pkg/rabbit"
)

const statusCacheTTL = 10 * time.Minute

// Projection is the slice of storage the projector needs.
type Projection interface {
	ProjectStatus(ctx context.Context, eventID, orderID string, status models.OrderStatus, note string) (repo.ProjectResult, error)
}

type StatusCache interface {
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
}

// Consumer projects saga events into the orders read model and fans the
// resulting status changes out to connected sockets.
type Consumer struct {
	Log   zerolog.Logger
	Store Projection
	Cache StatusCache
	Hub   *ws.Hub

	RetryPub *rabbit.Publisher
	DLQPub   *rabbit.Publisher

	Service     string
	MaxAttempts int
	DLQKey      string
}

func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	c.Log.Info().Msg("tracking consumer started")
	for {
		select {
		case <-ctx.Done():
			c.Log.Info().Msg("tracking consumer stopped")
			return
		case d, ok := <-deliveries:
			if !ok {
				c.Log.Info().Msg("deliveries closed")
				return
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var evt models.Event[json.RawMessage]
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.Log.Error().Err(err).Str("rk", d.RoutingKey).Msg("bad json -> dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, 0, c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}
	if evt.ID == "" || evt.OrderID == "" {
		c.Log.Error().Str("rk", d.RoutingKey).Msg("missing id/order_id -> dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, 0, c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}

	status := statusForRoutingKey(d.RoutingKey)
	if status == "" {
		_ = d.Ack(false)
		return
	}

	res, err := c.Store.ProjectStatus(ctx, evt.ID, evt.OrderID, status, d.RoutingKey)
	if err != nil {
		c.Log.Error().Err(err).Str("order_id", evt.OrderID).Str("status", string(status)).Msg("project status failed -> retry/dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}
	_ = d.Ack(false)

	switch res {
	case repo.ProjectDuplicate:
		c.Log.Debug().Str("event_id", evt.ID).Msg("duplicate event ignored")
		return
	case repo.ProjectRejected:
		c.Log.Debug().Str("order_id", evt.OrderID).Str("status", string(status)).Msg("transition rejected by guard")
		return
	}

	_ = c.Cache.SetString(ctx, cache.OrderStatusKey(evt.OrderID), string(status), statusCacheTTL)

	c.Hub.Broadcast(evt.OrderID, ws.StatusFrame{
		Type:    "order_status_updated",
		OrderID: evt.OrderID,
		Status:  status,
		At:      time.Now().UTC(),
	})
	c.Log.Info().Str("order_id", evt.OrderID).Str("status", string(status)).Str("rk", d.RoutingKey).Msg("status projected")
}
