package rabbit_test

import (
	"testing"

	"delivery-order-system/shared/pkg/rabbit"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestAttempts(t *testing.T) {
	assert.EqualValues(t, 0, rabbit.Attempts(nil))
	assert.EqualValues(t, 0, rabbit.Attempts(amqp.Table{}))
	assert.EqualValues(t, 3, rabbit.Attempts(amqp.Table{"x-attempts": int32(3)}))
	assert.EqualValues(t, 4, rabbit.Attempts(amqp.Table{"x-attempts": int64(4)}))
	assert.EqualValues(t, 5, rabbit.Attempts(amqp.Table{"x-attempts": 5}))
	assert.EqualValues(t, 0, rabbit.Attempts(amqp.Table{"x-attempts": "junk"}))
}
