// README: Routing-provider adapters; orders consume distance/duration as an opaque input.
package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"reparto/internal/types"
)

// Estimate is the routing result an order is priced from. It is computed
// once at order creation and never recomputed.
type Estimate struct {
	DistanceKm float64
	Duration   time.Duration
}

// RouteEstimator abstracts the routing provider.
type RouteEstimator interface {
	EstimateRoute(ctx context.Context, origin, destination types.Point) (Estimate, error)
}

// RouteService handles interactions with the Google Maps Directions API.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a RouteService with the given API key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps: create client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// EstimateRoute returns driving distance and duration between two points.
func (s *RouteService) EstimateRoute(ctx context.Context, origin, destination types.Point) (Estimate, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", destination.Lat, destination.Lng),
		Mode:        maps.TravelModeDriving,
	}
	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return Estimate{}, fmt.Errorf("maps: directions: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Estimate{}, fmt.Errorf("maps: no route found")
	}
	leg := routes[0].Legs[0]
	return Estimate{
		DistanceKm: float64(leg.Distance.Meters) / 1000.0,
		Duration:   leg.Duration,
	}, nil
}
