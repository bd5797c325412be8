// README: Dispatch store — the two cross-aggregate transactions (assign,
// complete) and the Redis GEO proximity lookup.
package dispatch

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"reparto/internal/modules/location"
	"reparto/internal/modules/order"
	"reparto/internal/modules/rider"
	"reparto/internal/types"
)

var (
	ErrRiderInactive = errors.New("rider is not active")
	ErrRiderBusy     = errors.New("rider is already on a delivery")
)

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

// Assign binds a pending order to an available rider. Both rows are locked
// for the duration of the transaction, always order first then rider, so two
// concurrent assigns against the same pair serialize instead of deadlocking.
// Exactly one of them commits; the loser gets a state error.
func (s *Store) Assign(ctx context.Context, orderID, riderID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderStatus string
	err = tx.QueryRow(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID,
	).Scan(&orderStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.ErrNotFound
	}
	if err != nil {
		return err
	}
	if orderStatus != order.StatusPending {
		return order.ErrInvalidState
	}

	var (
		riderStatus rider.Status
		isActive    bool
	)
	err = tx.QueryRow(ctx,
		`SELECT status, is_active FROM riders WHERE id = $1 FOR UPDATE`, riderID,
	).Scan(&riderStatus, &isActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return rider.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !isActive {
		return ErrRiderInactive
	}
	if riderStatus == rider.StatusOnDelivery {
		return ErrRiderBusy
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET rider_id = $2, status = $3, updated_at = now()
		WHERE id = $1`,
		orderID, riderID, order.StatusAssigned,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE riders SET status = $2, updated_at = now()
		WHERE id = $1`,
		riderID, rider.StatusOnDelivery,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Complete marks an assigned order delivered and returns its rider to IDLE
// with the completed-orders counter bumped, atomically. The order must be
// bound to the given rider. Same lock ordering as Assign: order, then rider.
func (s *Store) Complete(ctx context.Context, riderID, orderID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		orderStatus string
		boundTo     *int64
	)
	err = tx.QueryRow(ctx,
		`SELECT status, rider_id FROM orders WHERE id = $1 FOR UPDATE`, orderID,
	).Scan(&orderStatus, &boundTo)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.ErrNotFound
	}
	if err != nil {
		return err
	}

	var lockedRider int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM riders WHERE id = $1 FOR UPDATE`, riderID,
	).Scan(&lockedRider)
	if errors.Is(err, pgx.ErrNoRows) {
		return rider.ErrNotFound
	}
	if err != nil {
		return err
	}
	if orderStatus != order.StatusAssigned || boundTo == nil || *boundTo != riderID {
		return order.ErrInvalidState
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1`,
		orderID, order.StatusDelivered,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE riders SET status = $2, completed_orders = completed_orders + 1, updated_at = now()
		WHERE id = $1`,
		riderID, rider.StatusIdle,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GeoDistances queries the Redis GEO mirror for riders within radiusKm of
// the center and returns rider id -> distance in km, nearest first in ids.
// A nil client or an empty set yields (nil, nil, nil): the mirror is a hint,
// not the source of truth.
func (s *Store) GeoDistances(ctx context.Context, center types.Point, radiusKm float64, count int) (ids []int64, dist map[int64]float64, err error) {
	if s.redis == nil {
		return nil, nil, nil
	}
	locs, err := s.redis.GeoSearchLocation(ctx, location.GeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  center.Lng,
			Latitude:   center.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      count,
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, nil, err
	}

	dist = make(map[int64]float64, len(locs))
	for _, l := range locs {
		id, perr := strconv.ParseInt(l.Name, 10, 64)
		if perr != nil {
			continue
		}
		ids = append(ids, id)
		dist[id] = l.Dist
	}
	return ids, dist, nil
}
