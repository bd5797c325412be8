// README: Order service gates creation on the service zone and prices the route.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reparto/internal/maps"
	"reparto/internal/modules/pricing"
	"reparto/internal/types"
)

var (
	ErrValidation = errors.New("invalid order input")
	// ErrOutsideZone rejects orders whose pickup or dropoff falls outside
	// the serviceable area; the zone check fails closed.
	ErrOutsideZone = errors.New("point outside service zone")
)

// ZoneChecker is the containment gate consulted before persistence.
type ZoneChecker interface {
	Contains(p types.Point) bool
}

// Pricer derives price and ETA text from a routing estimate.
type Pricer interface {
	Estimate(distanceKm float64, duration time.Duration) pricing.Quote
}

type Service struct {
	store  *Store
	zone   ZoneChecker
	routes maps.RouteEstimator
	pricer Pricer
}

func NewService(store *Store, zone ZoneChecker, routes maps.RouteEstimator, pricer Pricer) *Service {
	return &Service{store: store, zone: zone, routes: routes, pricer: pricer}
}

type CreateCommand struct {
	CustomerName     string
	CustomerLastname string
	PickupAddress    string
	DeliveryAddress  string
	Pickup           types.Point
	Dropoff          types.Point
}

// Create validates the command, checks both endpoints against the service
// zone, obtains a routing estimate, prices it, and persists the order as
// pending with no rider. Distance, ETA text, and price are frozen here.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if cmd.CustomerName == "" || cmd.CustomerLastname == "" {
		return nil, fmt.Errorf("%w: customer name and lastname required", ErrValidation)
	}
	if cmd.PickupAddress == "" || cmd.DeliveryAddress == "" {
		return nil, fmt.Errorf("%w: pickup and delivery addresses required", ErrValidation)
	}
	if !cmd.Pickup.Valid() || !cmd.Dropoff.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}
	if !s.zone.Contains(cmd.Pickup) {
		return nil, fmt.Errorf("%w: pickup", ErrOutsideZone)
	}
	if !s.zone.Contains(cmd.Dropoff) {
		return nil, fmt.Errorf("%w: dropoff", ErrOutsideZone)
	}

	est, err := s.routes.EstimateRoute(ctx, cmd.Pickup, cmd.Dropoff)
	if err != nil {
		return nil, fmt.Errorf("route estimate: %w", err)
	}
	quote := s.pricer.Estimate(est.DistanceKm, est.Duration)

	o := &Order{
		CustomerName:     cmd.CustomerName,
		CustomerLastname: cmd.CustomerLastname,
		PickupAddress:    cmd.PickupAddress,
		DeliveryAddress:  cmd.DeliveryAddress,
		Pickup:           cmd.Pickup,
		Dropoff:          cmd.Dropoff,
		DistanceKm:       est.DistanceKm,
		EstimatedTime:    quote.ETAText,
		EstimatedPrice:   quote.Price,
		Status:           StatusPending,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, status string, limit int) ([]*Order, error) {
	return s.store.List(ctx, status, limit)
}
