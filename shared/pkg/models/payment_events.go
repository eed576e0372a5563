package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentAuthorizedPayload struct {
	AmountCents int    `json:"amount_cents"`
	ProviderRef string `json:"provider_ref"`
}

type PaymentFailedPayload struct {
	Reason string `json:"reason"`
}

func NewPaymentAuthorized(orderID string, amountCents int, providerRef string) Event[PaymentAuthorizedPayload] {
	return Event[PaymentAuthorizedPayload]{
		ID:      uuid.NewString(),
		Type:    "payment.authorized",
		Version: 1,
		Time:    time.Now(),
		OrderID: orderID,
		Payload: PaymentAuthorizedPayload{AmountCents: amountCents, ProviderRef: providerRef},
	}
}

func NewPaymentFailed(orderID, reason string) Event[PaymentFailedPayload] {
	return Event[PaymentFailedPayload]{
		ID:      uuid.NewString(),
		Type:    "payment.failed",
		Version: 1,
		Time:    time.Now(),
		OrderID: orderID,
		Payload: PaymentFailedPayload{Reason: reason},
	}
}
