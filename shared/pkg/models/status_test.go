package models_test

import (
	"testing"

	"delivery-order-system/shared/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_HappyPath(t *testing.T) {
	path := []models.OrderStatus{
		models.StatusPending,
		models.StatusDriverAssigned,
		models.StatusConfirmed,
		models.StatusPickedUp,
		models.StatusInTransit,
		models.StatusDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, models.CanTransition(path[i], path[i+1]), "%s -> %s", path[i], path[i+1])
	}
}

func TestCanTransition_TerminalStatesAreFrozen(t *testing.T) {
	for _, terminal := range []models.OrderStatus{models.StatusDelivered, models.StatusCancelled} {
		for _, to := range []models.OrderStatus{
			models.StatusPending, models.StatusDriverAssigned, models.StatusConfirmed,
			models.StatusPickedUp, models.StatusInTransit, models.StatusDelivered, models.StatusCancelled,
		} {
			assert.False(t, models.CanTransition(terminal, to), "%s -> %s must be rejected", terminal, to)
		}
	}
}

func TestCanTransition_NoSkippingStates(t *testing.T) {
	assert.False(t, models.CanTransition(models.StatusPending, models.StatusPickedUp))
	assert.False(t, models.CanTransition(models.StatusDriverAssigned, models.StatusInTransit))
	assert.False(t, models.CanTransition(models.StatusConfirmed, models.StatusDelivered))
	assert.False(t, models.CanTransition(models.StatusDelivered, models.StatusPending))
}

func TestCanTransition_CancelFromAnyNonTerminal(t *testing.T) {
	for _, from := range []models.OrderStatus{
		models.StatusPending, models.StatusDriverAssigned, models.StatusConfirmed,
		models.StatusPickedUp, models.StatusInTransit,
	} {
		assert.True(t, models.CanTransition(from, models.StatusCancelled), "cancel from %s", from)
	}
}

func TestTransitionSources(t *testing.T) {
	srcs := models.TransitionSources(models.StatusCancelled)
	assert.ElementsMatch(t, []string{"pending", "driver_assigned", "confirmed", "picked_up", "in_transit"}, srcs)

	assert.ElementsMatch(t, []string{"in_transit"}, models.TransitionSources(models.StatusDelivered))
	assert.Empty(t, models.TransitionSources(models.StatusPending))
}

func TestStatusValidAndTerminal(t *testing.T) {
	assert.True(t, models.StatusPickedUp.Valid())
	assert.False(t, models.OrderStatus("shipped").Valid())
	assert.True(t, models.StatusCancelled.Terminal())
	assert.False(t, models.StatusInTransit.Terminal())
}
