package outbox_test

import (
	"testing"
	"time"

	"delivery-order-system/services/outbox-worker/internal/outbox"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	max := 60 * time.Second

	assert.Equal(t, 2*time.Second, outbox.Backoff(1, max))
	assert.Equal(t, 4*time.Second, outbox.Backoff(2, max))
	assert.Equal(t, 32*time.Second, outbox.Backoff(5, max))
	assert.Equal(t, max, outbox.Backoff(6, max))
	assert.Equal(t, max, outbox.Backoff(30, max))

	// Never below one second, even for degenerate attempts.
	assert.Equal(t, time.Second, outbox.Backoff(0, max))
	assert.Equal(t, time.Second, outbox.Backoff(-3, max))
}
