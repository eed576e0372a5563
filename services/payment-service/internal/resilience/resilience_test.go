package resilience_test

import (
	"errors"
	"testing"
	"time"

	"delivery-order-system/services/payment-service/internal/resilience"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := resilience.Retry(3, 0, func() error {
		calls++
		if calls < 3 {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_Exhausted(t *testing.T) {
	calls := 0
	err := resilience.Retry(2, 0, func() error {
		calls++
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := resilience.NewCircuitBreaker(2, time.Hour, zerolog.Nop())
	boom := func() error { return errors.New("boom") }

	require.Error(t, cb.Execute(boom))
	assert.Equal(t, resilience.StateClosed, cb.State())

	require.Error(t, cb.Execute(boom))
	assert.Equal(t, resilience.StateOpen, cb.State())

	// Fast-fails without running the action.
	ran := false
	err := cb.Execute(func() error { ran = true; return nil })
	assert.ErrorIs(t, err, resilience.ErrOpen)
	assert.False(t, ran)
}

func TestCircuitBreaker_RecoversViaHalfOpen(t *testing.T) {
	cb := resilience.NewCircuitBreaker(1, time.Millisecond, zerolog.Nop())
	require.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	assert.Equal(t, resilience.StateOpen, cb.State())

	time.Sleep(5 * time.Millisecond)

	// The probe succeeds and the breaker closes again.
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, resilience.StateClosed, cb.State())
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	cb := resilience.NewCircuitBreaker(1, time.Millisecond, zerolog.Nop())
	require.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	time.Sleep(5 * time.Millisecond)
	require.Error(t, cb.Execute(func() error { return errors.New("still down") }))
	assert.Equal(t, resilience.StateOpen, cb.State())
}
