package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"delivery-order-system/shared/pkg/models"
)

// A client dropped for being slow can still have frames in flight from
// its read pump; those sends must be swallowed, not crash on the closed
// channel.
func TestSendErrorAfterClientDropped(t *testing.T) {
	h := NewHub()
	c := NewClient("order-1", "user-a", models.RoleCustomer)
	h.Join(c)
	h.Leave(c)

	s := &Server{hub: h}
	s.sendError(c, "malformed frame")

	assert.False(t, c.trySend([]byte("late frame")))
}

func TestTrySendReportsFullBuffer(t *testing.T) {
	c := NewClient("order-1", "user-a", models.RoleCustomer)
	for i := 0; i < sendBuffer; i++ {
		assert.True(t, c.trySend([]byte("x")))
	}
	assert.False(t, c.trySend([]byte("overflow")))
}
