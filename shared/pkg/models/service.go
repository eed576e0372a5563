package models

// Service is a catalog entry (e.g. "Express Delivery") with its rate card.
type Service struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	VehicleType   string `json:"vehicle_type"`
	BaseFareCents int    `json:"base_fare_cents"`
	PerKmCents    int    `json:"per_km_cents"`
	PerKgCents    int    `json:"per_kg_cents"`
	MinFareCents  int    `json:"min_fare_cents"`
	Active        bool   `json:"active"`
}
