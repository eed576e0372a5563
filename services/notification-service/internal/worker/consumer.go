package worker

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"delivery-order-system/shared/pkg/models"
)

type Consumer struct {
	Log zerolog.Logger
}

func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			c.Log.Info().Msg("notification consumer stopped")
			return
		case d, ok := <-deliveries:
			if !ok {
				c.Log.Info().Msg("deliveries closed")
				return
			}
			c.handle(d)
		}
	}
}

func (c *Consumer) handle(d amqp.Delivery) {
	var evt models.Event[json.RawMessage]
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.Log.Error().Err(err).Str("rk", d.RoutingKey).Msg("bad json -> dlq")
		_ = d.Nack(false, false)
		return
	}

	for _, n := range render(d.RoutingKey, evt) {
		c.Log.Info().
			Str("order_id", evt.OrderID).
			Str("role", string(n.Role)).
			Str("recipient", n.Recipient).
			Str("text", n.Text).
			Msg("notify")
	}

	_ = d.Ack(false)
}
