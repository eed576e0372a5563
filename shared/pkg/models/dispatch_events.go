package models

import (
	"time"

	"github.com/google/uuid"
)

type DispatchAssignedPayload struct {
	TransporterID string  `json:"transporter_id"`
	DistanceKm    float64 `json:"distance_km"`
	EtaMinutes    int     `json:"eta_minutes"`
}

type DispatchFailedPayload struct {
	Reason string `json:"reason"`
}

type DispatchReleaseRequestedPayload struct {
	Reason string `json:"reason"`
}

type DispatchReleasedPayload struct {
	TransporterID string `json:"transporter_id"`
}

func NewDispatchAssigned(orderID, transporterID string, distanceKm float64, etaMinutes int) Event[DispatchAssignedPayload] {
	return Event[DispatchAssignedPayload]{
		ID:      uuid.NewString(),
		Type:    "dispatch.assigned",
		Version: 1,
		Time:    time.Now(),
		OrderID: orderID,
		Payload: DispatchAssignedPayload{TransporterID: transporterID, DistanceKm: distanceKm, EtaMinutes: etaMinutes},
	}
}

func NewDispatchFailed(orderID, reason string) Event[DispatchFailedPayload] {
	return Event[DispatchFailedPayload]{
		ID:      uuid.NewString(),
		Type:    "dispatch.failed",
		Version: 1,
		Time:    time.Now(),
		OrderID: orderID,
		Payload: DispatchFailedPayload{Reason: reason},
	}
}

func NewDispatchReleaseRequested(orderID, reason string) Event[DispatchReleaseRequestedPayload] {
	return Event[DispatchReleaseRequestedPayload]{
		ID:      uuid.NewString(),
		Type:    "dispatch.release_requested",
		Version: 1,
		Time:    time.Now(),
		OrderID: orderID,
		Payload: DispatchReleaseRequestedPayload{Reason: reason},
	}
}

func NewDispatchReleased(orderID, transporterID string) Event[DispatchReleasedPayload] {
	return Event[DispatchReleasedPayload]{
		ID:      uuid.NewString(),
		Type:    "dispatch.released",
		Version: 1,
		Time:    time.Now(),
		OrderID: orderID,
		Payload: DispatchReleasedPayload{TransporterID: transporterID},
	}
}
