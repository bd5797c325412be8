// README: Pricing service computes fare estimates from route distance and duration.
package pricing

import (
	"fmt"
	"math"
	"time"
)

// Rates holds the linear pricing policy: price = max(Floor, Base + PerKm*km).
// The floor avoids underpricing very short trips.
type Rates struct {
	Floor float64
	Base  float64
	PerKm float64
}

func DefaultRates() Rates {
	return Rates{Floor: 3.0, Base: 4.5, PerKm: 1.0}
}

// Quote is the price and human-readable ETA computed once at order creation.
type Quote struct {
	Price   float64 `json:"price"`
	ETAText string  `json:"eta_text"`
}

type Service struct {
	rates Rates
}

func NewService(rates Rates) *Service {
	return &Service{rates: rates}
}

// Estimate is a pure function: identical inputs produce identical quotes.
// A non-positive distance is treated as a minimum trip, and the ETA is a
// rounding of the routing provider's duration, never below one minute.
func (s *Service) Estimate(distanceKm float64, duration time.Duration) Quote {
	if distanceKm < 0 || math.IsNaN(distanceKm) {
		distanceKm = 0
	}
	price := s.rates.Base + s.rates.PerKm*distanceKm
	if price < s.rates.Floor {
		price = s.rates.Floor
	}
	minutes := int(math.Round(duration.Seconds() / 60))
	if minutes < 1 {
		minutes = 1
	}
	return Quote{
		Price:   math.Round(price*100) / 100,
		ETAText: fmt.Sprintf("%d min", minutes),
	}
}
