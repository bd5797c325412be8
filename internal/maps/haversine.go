// README: Haversine fallback estimator for environments without a Maps API key.
package maps

import (
	"context"
	"math"
	"time"

	"reparto/internal/types"
)

const earthRadiusKm = 6371.0

// HaversineEstimator approximates route distance as the great-circle
// distance and derives duration from an assumed average speed. Used when no
// routing provider is configured.
type HaversineEstimator struct {
	AvgSpeedKmh float64
}

func NewHaversineEstimator() *HaversineEstimator {
	return &HaversineEstimator{AvgSpeedKmh: 25}
}

func (h *HaversineEstimator) EstimateRoute(_ context.Context, origin, destination types.Point) (Estimate, error) {
	km := haversineKm(origin.Lat, origin.Lng, destination.Lat, destination.Lng)
	speed := h.AvgSpeedKmh
	if speed <= 0 {
		speed = 25
	}
	return Estimate{
		DistanceKm: km,
		Duration:   time.Duration(km / speed * float64(time.Hour)),
	}, nil
}

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
