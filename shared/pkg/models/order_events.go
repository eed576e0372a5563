package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderCreatedPayload struct {
	CustomerID string  `json:"customer_id"`
	ServiceID  string  `json:"service_id"`
	Vehicle    string  `json:"vehicle"`
	Pickup     Stop    `json:"pickup"`
	Dropoff    Stop    `json:"dropoff"`
	WeightKg   float64 `json:"weight_kg"`
	DistanceKm float64 `json:"distance_km"`
	TotalCents int     `json:"total_cents"`
}

type StatusChangedPayload struct {
	Status OrderStatus `json:"status"`
	Actor  string      `json:"actor"`
}

type OrderCancelledPayload struct {
	Reason string `json:"reason"`
}

func NewOrderCreated(orderID string, p OrderCreatedPayload) Event[OrderCreatedPayload] {
	return Event[OrderCreatedPayload]{
		ID:      uuid.NewString(),
		Type:    "orders.created",
		Version: 1,
		Time:    time.Now(),
		OrderID: orderID,
		Payload: p,
	}
}

// NewStatusChanged builds the progress events the transporter drives
// through the API: orders.picked_up, orders.in_transit, orders.delivered.
func NewStatusChanged(orderID, actor string, status OrderStatus) Event[StatusChangedPayload] {
	return Event[StatusChangedPayload]{
		ID:      uuid.NewString(),
		Type:    "orders." + string(status),
		Version: 1,
		Time:    time.Now(),
		OrderID: orderID,
		Payload: StatusChangedPayload{Status: status, Actor: actor},
	}
}

func NewOrderCancelled(orderID, reason string) Event[OrderCancelledPayload] {
	return Event[OrderCancelledPayload]{
		ID:      uuid.NewString(),
		Type:    "order.cancelled",
		Version: 1,
		Time:    time.Now(),
		OrderID: orderID,
		Payload: OrderCancelledPayload{Reason: reason},
	}
}
