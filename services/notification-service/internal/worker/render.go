package worker

import (
	"encoding/json"
	"fmt"
	"strings"

	"delivery-order-system/shared/pkg/models"
)

// Notification is one message for one party. Transport is the log for
// now; push and SMS hang off the same struct later.
type Notification struct {
	Recipient string
	Role      models.Role
	Text      string
}

// render turns a saga event into zero or more notifications. Unknown
// keys produce none, the queue binds broadly on purpose.
func render(rk string, evt models.Event[json.RawMessage]) []Notification {
	switch strings.ToLower(rk) {
	case "dispatch.assigned":
		var p models.DispatchAssignedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return nil
		}
		return []Notification{
			{Role: models.RoleCustomer, Text: fmt.Sprintf("A transporter was assigned to your order, about %d min away.", p.EtaMinutes)},
			{Recipient: p.TransporterID, Role: models.RoleTransporter, Text: "You have a new delivery. Head to the pickup point."},
		}
	case "dispatch.failed":
		return []Notification{{Role: models.RoleCustomer, Text: "We could not find a transporter for your order. It was cancelled, you were not charged."}}
	case "payment.authorized":
		var p models.PaymentAuthorizedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return nil
		}
		return []Notification{{Role: models.RoleCustomer, Text: fmt.Sprintf("Payment of %.2f confirmed. Your delivery is on its way.", float64(p.AmountCents)/100)}}
	case "payment.failed":
		return []Notification{{Role: models.RoleCustomer, Text: "Payment failed and your order was cancelled. Please check your payment method."}}
	case "orders.picked_up":
		return []Notification{{Role: models.RoleCustomer, Text: "Your package was picked up."}}
	case "orders.delivered":
		return []Notification{{Role: models.RoleCustomer, Text: "Your package was delivered. Thanks for riding with us!"}}
	case "order.cancelled":
		var p models.OrderCancelledPayload
		_ = json.Unmarshal(evt.Payload, &p)
		text := "Your order was cancelled."
		if p.Reason != "" {
			text = fmt.Sprintf("Your order was cancelled: %s.", p.Reason)
		}
		return []Notification{{Role: models.RoleCustomer, Text: text}}
	default:
		return nil
	}
}
