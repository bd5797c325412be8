// README: Dispatch service — assignment, completion, and the
// nearest-available-rider lookup.
package dispatch

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"reparto/internal/modules/order"
	"reparto/internal/modules/rider"
	"reparto/internal/observability"
	"reparto/internal/types"
)

// NearbyDefaults bound the proximity lookup when the caller does not say.
type NearbyDefaults struct {
	RadiusKm float64
	Limit    int
}

type Service struct {
	store  *Store
	orders *order.Store
	riders *rider.Store
	nearby NearbyDefaults
	log    *zap.Logger
}

func NewService(store *Store, orders *order.Store, riders *rider.Store, nearby NearbyDefaults, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if nearby.RadiusKm <= 0 {
		nearby.RadiusKm = 5
	}
	if nearby.Limit <= 0 {
		nearby.Limit = 10
	}
	return &Service{store: store, orders: orders, riders: riders, nearby: nearby, log: log}
}

// AssignedOrder is what the caller gets back after a successful assignment:
// the updated order plus the rider it went to.
type AssignedOrder struct {
	Order *order.Order `json:"order"`
	Rider *rider.Rider `json:"rider"`
}

// Assign hands a pending order to a rider. The guards live inside the store
// transaction; here we only refetch both sides for the response.
func (s *Service) Assign(ctx context.Context, orderID, riderID int64) (*AssignedOrder, error) {
	if err := s.store.Assign(ctx, orderID, riderID); err != nil {
		observability.AssignmentsTotal.WithLabelValues(assignOutcome(err)).Inc()
		return nil, err
	}
	observability.AssignmentsTotal.WithLabelValues("assigned").Inc()
	s.log.Info("order assigned",
		zap.Int64("order_id", orderID),
		zap.Int64("rider_id", riderID))

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	r, err := s.riders.GetByID(ctx, riderID)
	if err != nil {
		return nil, err
	}
	return &AssignedOrder{Order: o, Rider: r}, nil
}

// Complete finishes a delivery: order becomes delivered, the rider returns
// to IDLE with one more completed order. The order must belong to the rider.
func (s *Service) Complete(ctx context.Context, riderID, orderID int64) (*AssignedOrder, error) {
	if err := s.store.Complete(ctx, riderID, orderID); err != nil {
		return nil, err
	}
	observability.CompletionsTotal.Inc()
	s.log.Info("order delivered",
		zap.Int64("order_id", orderID),
		zap.Int64("rider_id", riderID))

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	r, err := s.riders.GetByID(ctx, riderID)
	if err != nil {
		return nil, err
	}
	return &AssignedOrder{Order: o, Rider: r}, nil
}

func assignOutcome(err error) string {
	switch {
	case errors.Is(err, order.ErrNotFound), errors.Is(err, rider.ErrNotFound):
		return "not_found"
	case errors.Is(err, order.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrRiderInactive):
		return "rider_inactive"
	case errors.Is(err, ErrRiderBusy):
		return "rider_busy"
	default:
		return "error"
	}
}

// NearbyRider is an available rider, with the GEO-mirror distance when the
// mirror knows about them.
type NearbyRider struct {
	Rider      *rider.Rider `json:"rider"`
	DistanceKm *float64     `json:"distance_km,omitempty"`
}

// NearbyAvailable lists riders that can take an order right now, nearest
// first when the Redis GEO mirror has positions for them. The database is
// the source of truth for availability; the mirror only orders and trims
// the result. Without a usable mirror the list falls back to rating order.
func (s *Service) NearbyAvailable(ctx context.Context, center types.Point, radiusKm float64, limit int) ([]NearbyRider, error) {
	if radiusKm <= 0 {
		radiusKm = s.nearby.RadiusKm
	}
	if limit <= 0 {
		limit = s.nearby.Limit
	}

	available, err := s.riders.Available(ctx)
	if err != nil {
		return nil, err
	}

	// Over-fetch from the mirror: some of its members will not be
	// available and get filtered out below.
	geoIDs, dist, err := s.store.GeoDistances(ctx, center, radiusKm, limit*4)
	if err != nil {
		s.log.Warn("geo lookup failed, falling back to rating order", zap.Error(err))
		geoIDs, dist = nil, nil
	}

	out := make([]NearbyRider, 0, limit)
	if len(geoIDs) > 0 {
		byID := make(map[int64]*rider.Rider, len(available))
		for _, r := range available {
			byID[r.ID] = r
		}
		for _, id := range geoIDs {
			r, ok := byID[id]
			if !ok {
				continue
			}
			d := dist[id]
			out = append(out, NearbyRider{Rider: r, DistanceKm: &d})
			if len(out) == limit {
				break
			}
		}
		return out, nil
	}

	for _, r := range available {
		out = append(out, NearbyRider{Rider: r})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
