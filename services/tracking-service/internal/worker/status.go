package worker

import (
	"strings"

	"delivery-order-system/shared/pkg/models"
)

// statusForRoutingKey maps saga events to the order status they imply.
// Keys without a status meaning map to "": releases, and orders.created,
// whose pending row the gateway already wrote inside the booking tx.
func statusForRoutingKey(rk string) models.OrderStatus {
	switch strings.ToLower(rk) {
	case "dispatch.assigned":
		return models.StatusDriverAssigned
	case "payment.authorized":
		return models.StatusConfirmed
	case "orders.picked_up":
		return models.StatusPickedUp
	case "orders.in_transit":
		return models.StatusInTransit
	case "orders.delivered":
		return models.StatusDelivered
	case "dispatch.failed", "payment.failed", "order.cancelled":
		return models.StatusCancelled
	default:
		return ""
	}
}
