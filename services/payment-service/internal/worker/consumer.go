package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"delivery-order-system/services/payment-service/internal/provider"
	"delivery-order-system/services/payment-service/internal/repo"
	"delivery-order-system/services/payment-service/internal/resilience"
	"delivery-order-system/shared/pkg/models"
	"delivery-order-system/shared/pkg/rabbit"
)

type Consumer struct {
	Log      zerolog.Logger
	Repo     *repo.PaymentsPG
	Provider provider.Provider
	Breaker  *resilience.CircuitBreaker

	EventsPub *rabbit.Publisher
	RetryPub  *rabbit.Publisher
	DLQPub    *rabbit.Publisher

	Service     string
	MaxAttempts int
	DLQKey      string
}

func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	c.Log.Info().Msg("payment consumer started")
	for {
		select {
		case <-ctx.Done():
			c.Log.Info().Msg("payment consumer stopped")
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

	if d.RoutingKey != "dispatch.assigned" {
		c.Log.Warn().Str("rk", d.RoutingKey).Str("order_id", evt.OrderID).Msg("unexpected routing key -> ack")
		_ = d.Ack(false)
		return
	}

	charged, err := c.Repo.HasAuthorized(ctx, evt.OrderID)
	if err != nil {
		c.Log.Error().Err(err).Str("order_id", evt.OrderID).Msg("payment lookup failed -> retry/dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}
	if charged {
		_ = d.Ack(false)
		c.Log.Debug().Str("order_id", evt.OrderID).Msg("order already charged, skipping")
		return
	}

	amount, err := c.Repo.OrderTotal(ctx, evt.OrderID)
	if err != nil {
		if errors.Is(err, repo.ErrOrderNotFound) {
			c.Log.Error().Str("order_id", evt.OrderID).Msg("unknown order -> dlq")
			_ = rabbit.RetryOrDLQ(ctx, d, c.Service, 0, c.RetryPub, c.DLQPub, c.DLQKey)
			return
		}
		c.Log.Error().Err(err).Str("order_id", evt.OrderID).Msg("load order total failed -> retry/dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}

	var (
		ref      string
		declined bool
	)
	err = c.Breaker.Execute(func() error {
		return resilience.Retry(3, 200*time.Millisecond, func() error {
			var aerr error
			ref, aerr = c.Provider.Authorize(ctx, evt.OrderID, amount)
			if errors.Is(aerr, provider.ErrDeclined) {
				// A decline is an answer, not an outage.
				declined = true
				return nil
			}
			declined = false
			return aerr
		})
	})

	if err != nil {
		c.Log.Error().Err(err).Str("order_id", evt.OrderID).Msg("provider unavailable -> retry/dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}

	if declined {
		c.declineOrder(ctx, d, evt, amount)
		return
	}

	if err := c.Repo.RecordAuthorized(ctx, evt.OrderID, amount, ref); err != nil {
		c.Log.Error().Err(err).Str("order_id", evt.OrderID).Msg("record payment failed -> retry/dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}

	authorized := models.NewPaymentAuthorized(evt.OrderID, amount, ref)
	pubCtx, cancel := rabbit.WithTimeout(ctx)
	err = c.EventsPub.PublishJSON(pubCtx, authorized.Type, authorized, amqp.Table{"x-correlation-id": evt.ID})
	cancel()
	if err != nil {
		c.Log.Error().Err(err).Str("order_id", evt.OrderID).Msg("publish payment.authorized failed -> retry/dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}

	_ = d.Ack(false)
	c.Log.Info().Str("order_id", evt.OrderID).Int("amount_cents", amount).Msg("payment authorized")
}

func (c *Consumer) declineOrder(ctx context.Context, d amqp.Delivery, evt models.Event[json.RawMessage], amount int) {
	if err := c.Repo.RecordFailed(ctx, evt.OrderID, amount, "declined"); err != nil {
		c.Log.Error().Err(err).Str("order_id", evt.OrderID).Msg("record failed payment failed -> retry/dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}

	pf := models.NewPaymentFailed(evt.OrderID, "payment declined")
	releaseReq := models.NewDispatchReleaseRequested(evt.OrderID, "payment declined")
	cancelled := models.NewOrderCancelled(evt.OrderID, "payment declined")

	pubCtx, cancel := rabbit.WithTimeout(ctx)
	err1 := c.EventsPub.PublishJSON(pubCtx, pf.Type, pf, amqp.Table{"x-correlation-id": evt.ID})
	err2 := c.EventsPub.PublishJSON(pubCtx, releaseReq.Type, releaseReq, amqp.Table{"x-correlation-id": evt.ID})
	err3 := c.EventsPub.PublishJSON(pubCtx, cancelled.Type, cancelled, amqp.Table{"x-correlation-id": evt.ID})
	cancel()

	if err1 != nil || err2 != nil || err3 != nil {
		c.Log.Error().
			Err(firstErr(err1, err2, err3)).
			Str("order_id", evt.OrderID).
			Msg("publish failure events failed -> retry/dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}

	_ = d.Ack(false)
	c.Log.Warn().Str("order_id", evt.OrderID).Msg("payment declined -> requested transporter release + cancelled order")
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
