package models

import "time"

type Role string

const (
	RoleCustomer    Role = "customer"
	RoleTransporter Role = "transporter"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TransporterProfile carries the driver-side state dispatch needs:
// vehicle class, last reported position and whether the driver is
// currently accepting orders.
type TransporterProfile struct {
	UserID      string    `json:"user_id"`
	VehicleType string    `json:"vehicle_type"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Available   bool      `json:"available"`
	UpdatedAt   time.Time `json:"updated_at"`
}
