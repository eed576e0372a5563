package models

import "time"

// Stop is one end of a delivery: a street address plus coordinates and
// the contact expected there.
type Stop struct {
	Address      string  `json:"address"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	ContactName  string  `json:"contact_name"`
	ContactPhone string  `json:"contact_phone"`
}

type Order struct {
	ID            string      `json:"id"`
	CustomerID    string      `json:"customer_id"`
	TransporterID string      `json:"transporter_id,omitempty"`
	ServiceID     string      `json:"service_id"`
	Pickup        Stop        `json:"pickup"`
	Dropoff       Stop        `json:"dropoff"`
	WeightKg      float64     `json:"weight_kg"`
	DistanceKm    float64     `json:"distance_km"`
	Status        OrderStatus `json:"status"`
	TotalCents    int         `json:"total_cents"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type StatusChange struct {
	Status OrderStatus `json:"status"`
	At     time.Time   `json:"at"`
	Note   string      `json:"note,omitempty"`
}

type RoutePoint struct {
	OrderID       string    `json:"order_id"`
	TransporterID string    `json:"transporter_id"`
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	At            time.Time `json:"at"`
}

type ChatMessage struct {
	ID       string    `json:"id"`
	OrderID  string    `json:"order_id"`
	SenderID string    `json:"sender_id"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}
