// README: Order store backed by PostgreSQL.
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrInvalidState means the order is not in the state the requested
	// transition needs; callers should re-fetch before retrying.
	ErrInvalidState = errors.New("invalid order state")
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const orderColumns = `
	id, customer_name, customer_lastname, pickup_address, delivery_address,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	distance_km, estimated_time, estimated_price, status, rider_id,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.CustomerName, &o.CustomerLastname, &o.PickupAddress, &o.DeliveryAddress,
		&o.Pickup.Lat, &o.Pickup.Lng, &o.Dropoff.Lat, &o.Dropoff.Lng,
		&o.DistanceKm, &o.EstimatedTime, &o.EstimatedPrice, &o.Status, &o.RiderID,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) Create(ctx context.Context, o *Order) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO orders (
			customer_name, customer_lastname, pickup_address, delivery_address,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			distance_km, estimated_time, estimated_price, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		o.CustomerName, o.CustomerLastname, o.PickupAddress, o.DeliveryAddress,
		o.Pickup.Lat, o.Pickup.Lng, o.Dropoff.Lat, o.Dropoff.Lng,
		o.DistanceKm, o.EstimatedTime, o.EstimatedPrice, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (s *Store) Get(ctx context.Context, id int64) (*Order, error) {
	row := s.db.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// List returns orders newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, status string, limit int) ([]*Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	where := ``
	args := []any{}
	if status != "" {
		args = append(args, status)
		where = fmt.Sprintf(` WHERE status = $%d`, len(args))
	}
	args = append(args, limit)
	rows, err := s.db.Query(ctx,
		`SELECT`+orderColumns+` FROM orders`+where+
			fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args)),
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
