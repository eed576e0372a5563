package worker

import (
	"context"
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"delivery-order-system/services/dispatch-service/internal/dispatch"
	"delivery-order-system/services/dispatch-service/internal/repo"
	"delivery-order-system/shared/pkg/models"
	"delivery-order-system/shared/pkg/rabbit"
)

type Consumer struct {
	Log  zerolog.Logger
	Repo *repo.TransportersPG

	EventsPub *rabbit.Publisher
	RetryPub  *rabbit.Publisher
	DLQPub    *rabbit.Publisher

	Service     string
	MaxAttempts int
	DLQKey      string

	CandidateLimit int
	MaxRadiusKm    float64
}

func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	c.Log.Info().Msg("dispatch consumer started")
	for {
		select {
		case <-ctx.Done():
			c.Log.Info().Msg("dispatch consumer stopped")
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
	if evt.OrderID == "" || evt.ID == "" {
		c.Log.Error().Str("rk", d.RoutingKey).Msg("missing order_id/event_id -> dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, 0, c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}

	switch d.RoutingKey {
	case "orders.created":
		c.assign(ctx, d, evt)
	case "dispatch.release_requested":
		c.release(ctx, d, evt)
	default:
		c.Log.Warn().Str("rk", d.RoutingKey).Str("order_id", evt.OrderID).Msg("unexpected routing key -> ack")
		_ = d.Ack(false)
	}
}

func (c *Consumer) assign(ctx context.Context, d amqp.Delivery, evt models.Event[json.RawMessage]) {
	var p models.OrderCreatedPayload
	if err := json.Unmarshal(evt.Payload, &p); err != nil {
		c.Log.Error().Err(err).Str("order_id", evt.OrderID).Msg("bad payload -> dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, 0, c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}

	waiting, err := c.Repo.AwaitingAssignment(ctx, evt.OrderID)
	if err != nil {
		c.Log.Error().Err(err).Str("order_id", evt.OrderID).Msg("order lookup failed -> retry/dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}
	if !waiting {
		_ = d.Ack(false)
		c.Log.Debug().Str("order_id", evt.OrderID).Msg("order already assigned or closed, skipping")
		return
	}

	candidates, err := c.Repo.Candidates(ctx, p.Vehicle, c.CandidateLimit)
	if err != nil {
		c.Log.Error().Err(err).Str("order_id", evt.OrderID).Msg("load candidates failed -> retry/dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}

	// Nearest first; someone may get claimed by a concurrent assignment,
	// so fall through the remaining candidates.
	for len(candidates) > 0 {
		best, dist, ok := dispatch.Nearest(candidates, p.Pickup.Lat, p.Pickup.Lng, c.MaxRadiusKm)
		if !ok {
			break
		}

		claimed, err := c.Repo.Claim(ctx, best.UserID, evt.OrderID)
		if err != nil {
			c.Log.Error().Err(err).Str("order_id", evt.OrderID).Msg("claim failed -> retry/dlq")
			_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
			return
		}
		if !claimed {
			candidates = without(candidates, best.UserID)
			continue
		}

		assigned := models.NewDispatchAssigned(evt.OrderID, best.UserID, dist, dispatch.EtaMinutes(dist))
		pubCtx, cancel := rabbit.WithTimeout(ctx)
		err = c.EventsPub.PublishJSON(pubCtx, assigned.Type, assigned, amqp.Table{"x-correlation-id": evt.ID})
		cancel()
		if err != nil {
			c.Log.Error().Err(err).Str("order_id", evt.OrderID).Msg("publish dispatch.assigned failed -> retry/dlq")
			_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
			return
		}
		_ = d.Ack(false)
		c.Log.Info().Str("order_id", evt.OrderID).Str("transporter_id", best.UserID).Float64("distance_km", dist).Msg("transporter assigned")
		return
	}

	failed := models.NewDispatchFailed(evt.OrderID, "no transporters available")
	cancelled := models.NewOrderCancelled(evt.OrderID, "no transporters available")

	pubCtx, cancel := rabbit.WithTimeout(ctx)
	err1 := c.EventsPub.PublishJSON(pubCtx, failed.Type, failed, amqp.Table{"x-correlation-id": evt.ID})
	err2 := c.EventsPub.PublishJSON(pubCtx, cancelled.Type, cancelled, amqp.Table{"x-correlation-id": evt.ID})
	cancel()
	if err1 != nil || err2 != nil {
		c.Log.Error().Err(firstErr(err1, err2)).Str("order_id", evt.OrderID).Msg("publish dispatch failure failed -> retry/dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}
	_ = d.Ack(false)
	c.Log.Warn().Str("order_id", evt.OrderID).Msg("dispatch failed -> order cancelled")
}

func (c *Consumer) release(ctx context.Context, d amqp.Delivery, evt models.Event[json.RawMessage]) {
	transporterID, err := c.Repo.Release(ctx, evt.OrderID)
	if err != nil {
		if errors.Is(err, repo.ErrNoTransporter) {
			_ = d.Ack(false)
			c.Log.Debug().Str("order_id", evt.OrderID).Msg("nothing to release")
			return
		}
		c.Log.Error().Err(err).Str("order_id", evt.OrderID).Msg("release failed -> retry/dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}

	released := models.NewDispatchReleased(evt.OrderID, transporterID)
	pubCtx, cancel := rabbit.WithTimeout(ctx)
	err = c.EventsPub.PublishJSON(pubCtx, released.Type, released, amqp.Table{"x-correlation-id": evt.ID})
	cancel()
	if err != nil {
		c.Log.Error().Err(err).Str("order_id", evt.OrderID).Msg("publish dispatch.released failed -> retry/dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}
	_ = d.Ack(false)
	c.Log.Info().Str("order_id", evt.OrderID).Str("transporter_id", transporterID).Msg("transporter released (compensation)")
}

func without(cs []dispatch.Candidate, userID string) []dispatch.Candidate {
	out := cs[:0]
	for _, c := range cs {
		if c.UserID != userID {
			out = append(out, c)
		}
	}
	return out
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
