package ws

import (
	"time"

	"delivery-order-system/shared/pkg/models"
)

// Inbound frame shape. Type selects which of the remaining fields apply.
type inboundFrame struct {
	Type string  `json:"type"`
	Lat  float64 `json:"lat,omitempty"`
	Lng  float64 `json:"lng,omitempty"`
	Text string  `json:"text,omitempty"`
}

const (
	frameLocationUpdate     = "location_update"
	frameSendMessage        = "send_message"
	frameMessage            = "message"
	frameOrderStatusUpdated = "order_status_updated"
	frameError              = "error"
)

type LocationFrame struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"order_id"`
	TransporterID string    `json:"transporter_id"`
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	At            time.Time `json:"at"`
}

type MessageFrame struct {
	Type    string             `json:"type"`
	Message models.ChatMessage `json:"message"`
}

type StatusFrame struct {
	Type    string             `json:"type"`
	OrderID string             `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
	At      time.Time          `json:"at"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
