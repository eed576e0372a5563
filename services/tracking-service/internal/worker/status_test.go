package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"delivery-order-system/shared/pkg/models"
)

func TestStatusForRoutingKey(t *testing.T) {
	cases := []struct {
		rk   string
		want models.OrderStatus
	}{
		{"orders.created", ""},
		{"dispatch.assigned", models.StatusDriverAssigned},
		{"payment.authorized", models.StatusConfirmed},
		{"orders.picked_up", models.StatusPickedUp},
		{"orders.in_transit", models.StatusInTransit},
		{"orders.delivered", models.StatusDelivered},
		{"dispatch.failed", models.StatusCancelled},
		{"payment.failed", models.StatusCancelled},
		{"order.cancelled", models.StatusCancelled},
		{"DISPATCH.ASSIGNED", models.StatusDriverAssigned},
		{"dispatch.release_requested", ""},
		{"dispatch.released", ""},
		{"something.else", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusForRoutingKey(tc.rk), tc.rk)
	}
}

func TestStatusForRoutingKeyTargetsHaveGuardSources(t *testing.T) {
	// every projected status must be reachable, otherwise the guarded
	// update could never apply it
	for _, rk := range []string{
		"dispatch.assigned", "payment.authorized",
		"orders.picked_up", "orders.in_transit", "orders.delivered", "order.cancelled",
	} {
		st := statusForRoutingKey(rk)
		assert.NotEmpty(t, models.TransitionSources(st), rk)
	}
}
