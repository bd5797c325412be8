// README: Rider aggregate, vehicle record, and availability state machine.
package rider

import "time"

type Status string

const (
	StatusOffline    Status = "OFFLINE"
	StatusIdle       Status = "IDLE"
	StatusOnDelivery Status = "ON_DELIVERY"
)

func (s Status) Known() bool {
	switch s {
	case StatusOffline, StatusIdle, StatusOnDelivery:
		return true
	}
	return false
}

// AllowedTransitions represents the availability state flow as code.
// ON_DELIVERY is only entered through the assignment transaction and only
// left through the completion transaction or an explicit go-offline; no
// state is terminal.
var AllowedTransitions = map[Status][]Status{
	StatusOffline:    {StatusIdle},
	StatusIdle:       {StatusOffline, StatusOnDelivery},
	StatusOnDelivery: {StatusIdle, StatusOffline},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

type VehicleType string

const (
	VehicleMotorcycle VehicleType = "MOTORCYCLE"
	VehicleBicycle    VehicleType = "BICYCLE"
	VehicleCar        VehicleType = "CAR"
	VehicleVan        VehicleType = "VAN"
)

// Vehicle is the 0..1 vehicle owned by a rider.
type Vehicle struct {
	ID           int64       `json:"id"`
	RiderID      int64       `json:"rider_id"`
	Type         VehicleType `json:"type"`
	Brand        *string     `json:"brand,omitempty"`
	Model        *string     `json:"model,omitempty"`
	Year         *int        `json:"year,omitempty"`
	LicensePlate string      `json:"license_plate"`
	Color        *string     `json:"color,omitempty"`
}

// LastLocation is the denormalized positional summary joined into rider
// listings. The location module owns the authoritative record.
type LastLocation struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Battery    *int      `json:"battery,omitempty"`
	Source     *string   `json:"source,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

type Rider struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	Phone           string        `json:"phone"`
	LicenseNumber   *string       `json:"license_number,omitempty"`
	Status          Status        `json:"status"`
	IsActive        bool          `json:"is_active"`
	Rating          *float64      `json:"rating,omitempty"`
	CompletedOrders int           `json:"completed_orders"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Vehicle         *Vehicle      `json:"vehicle,omitempty"`
	LastLocation    *LastLocation `json:"last_location,omitempty"`
	OrderCount      int           `json:"order_count"`
}
