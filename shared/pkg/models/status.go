package models

type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusDriverAssigned OrderStatus = "driver_assigned"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPickedUp       OrderStatus = "picked_up"
	StatusInTransit      OrderStatus = "in_transit"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// transitions lists the statuses an order may move to from each status.
// Delivered and cancelled are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusDriverAssigned, StatusCancelled},
	StatusDriverAssigned: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPickedUp, StatusCancelled},
	StatusPickedUp:       {StatusInTransit, StatusCancelled},
	StatusInTransit:      {StatusDelivered, StatusCancelled},
	StatusDelivered:      nil,
	StatusCancelled:      nil,
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionSources returns every status from which to is reachable,
// for use in SQL guards (update ... where status = any($2)).
func TransitionSources(to OrderStatus) []string {
	var out []string
	for from, nexts := range transitions {
		for _, next := range nexts {
			if next == to {
				out = append(out, string(from))
			}
		}
	}
	return out
}
