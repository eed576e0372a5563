package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-order-system/shared/pkg/models"
)

func TestHubBroadcastReachesRoomMembers(t *testing.T) {
	h := NewHub()
	a := NewClient("order-1", "user-a", models.RoleCustomer)
	b := NewClient("order-1", "user-b", models.RoleTransporter)
	other := NewClient("order-2", "user-c", models.RoleCustomer)
	h.Join(a)
	h.Join(b)
	h.Join(other)

	h.Broadcast("order-1", StatusFrame{Type: "order_status_updated", OrderID: "order-1", Status: models.StatusConfirmed})

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.Outbound():
			var f StatusFrame
			require.NoError(t, json.Unmarshal(raw, &f))
			assert.Equal(t, models.StatusConfirmed, f.Status)
		default:
			t.Fatalf("client %s got no frame", c.UserID)
		}
	}

	select {
	case <-other.Outbound():
		t.Fatal("frame leaked into another order's room")
	default:
	}
}

func TestHubLeaveClosesOutboundAndEmptiesRoom(t *testing.T) {
	h := NewHub()
	c := NewClient("order-1", "user-a", models.RoleCustomer)
	h.Join(c)
	require.Equal(t, 1, h.RoomSize("order-1"))

	h.Leave(c)
	assert.Equal(t, 0, h.RoomSize("order-1"))

	_, open := <-c.Outbound()
	assert.False(t, open)

	// double leave must be a no-op
	h.Leave(c)
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub()
	slow := NewClient("order-1", "user-a", models.RoleCustomer)
	h.Join(slow)

	for i := 0; i < sendBuffer+1; i++ {
		h.Broadcast("order-1", StatusFrame{Type: "order_status_updated", OrderID: "order-1", Status: models.StatusInTransit})
	}

	assert.Equal(t, 0, h.RoomSize("order-1"))
}

func TestHubBroadcastToEmptyRoom(t *testing.T) {
	h := NewHub()
	h.Broadcast("nobody-home", StatusFrame{Type: "order_status_updated"})
	assert.Equal(t, 0, h.RoomSize("nobody-home"))
}
