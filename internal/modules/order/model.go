// README: Order aggregate and status definitions.
package order

import (
	"time"

	"reparto/internal/types"
)

// Order statuses are open strings with recognized values; outside systems
// may introduce others, the core only reasons about these.
const (
	StatusPending   = "pending"
	StatusAssigned  = "assigned"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// IsTerminal reports whether a status ends the order lifecycle.
func IsTerminal(status string) bool {
	return status == StatusDelivered || status == StatusCancelled
}

type Order struct {
	ID               int64       `json:"id"`
	CustomerName     string      `json:"customer_name"`
	CustomerLastname string      `json:"customer_lastname"`
	PickupAddress    string      `json:"pickup_address"`
	DeliveryAddress  string      `json:"delivery_address"`
	Pickup           types.Point `json:"pickup"`
	Dropoff          types.Point `json:"dropoff"`
	// Computed once at creation from the routing provider, never recomputed.
	DistanceKm     float64   `json:"distance_km"`
	EstimatedTime  string    `json:"estimated_time"`
	EstimatedPrice float64   `json:"estimated_price"`
	Status         string    `json:"status"`
	RiderID        *int64    `json:"rider_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
