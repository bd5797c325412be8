// README: Rider store backed by PostgreSQL.
package rider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("rider not found")
	// ErrHasOrders guards hard deletion: riders with order history are
	// permanently retained.
	ErrHasOrders = errors.New("rider has order history")
	// ErrUserTaken means the account identity already owns a rider profile.
	ErrUserTaken = errors.New("user already has a rider profile")
	// ErrConflict means the rider's status changed between read and write;
	// callers re-fetch and retry or give up.
	ErrConflict = errors.New("rider status changed concurrently")
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const riderColumns = `
	r.id, r.user_id, r.phone, r.license_number, r.status, r.is_active,
	r.rating, r.completed_orders, r.created_at, r.updated_at,
	v.id, v.type, v.brand, v.model, v.year, v.license_plate, v.color,
	ll.lat, ll.lng, ll.speed, ll.heading, ll.accuracy, ll.battery, ll.source, ll.recorded_at,
	(SELECT COUNT(*) FROM orders o WHERE o.rider_id = r.id)`

const riderFrom = `
	FROM riders r
	LEFT JOIN vehicles v ON v.rider_id = r.id
	LEFT JOIN rider_last_locations ll ON ll.rider_id = r.id`

func scanRider(row pgx.Row) (*Rider, error) {
	var (
		r        Rider
		vID      *int64
		vType    *string
		vBrand   *string
		vModel   *string
		vYear    *int
		vPlate   *string
		vColor   *string
		llLat    *float64
		llLng    *float64
		llSpeed  *float64
		llHead   *float64
		llAcc    *float64
		llBatt   *int
		llSource *string

		llRecordedAt *time.Time
	)
	err := row.Scan(
		&r.ID, &r.UserID, &r.Phone, &r.LicenseNumber, &r.Status, &r.IsActive,
		&r.Rating, &r.CompletedOrders, &r.CreatedAt, &r.UpdatedAt,
		&vID, &vType, &vBrand, &vModel, &vYear, &vPlate, &vColor,
		&llLat, &llLng, &llSpeed, &llHead, &llAcc, &llBatt, &llSource, &llRecordedAt,
		&r.OrderCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if vID != nil {
		r.Vehicle = &Vehicle{
			ID:      *vID,
			RiderID: r.ID,
			Type:    VehicleType(deref(vType)),
			Brand:   vBrand,
			Model:   vModel,
			Year:    vYear,
			Color:   vColor,
		}
		if vPlate != nil {
			r.Vehicle.LicensePlate = *vPlate
		}
	}
	if llLat != nil && llLng != nil && llRecordedAt != nil {
		r.LastLocation = &LastLocation{
			Lat:        *llLat,
			Lng:        *llLng,
			Speed:      llSpeed,
			Heading:    llHead,
			Accuracy:   llAcc,
			Battery:    llBatt,
			Source:     llSource,
			RecordedAt: *llRecordedAt,
		}
	}
	return &r, nil
}

func (s *Store) Create(ctx context.Context, r *Rider) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM riders WHERE user_id = $1)`, r.UserID,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrUserTaken
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO riders (user_id, phone, license_number, status, is_active)
		VALUES ($1, $2, $3, $4, true)
		RETURNING id, created_at, updated_at`,
		r.UserID, r.Phone, r.LicenseNumber, StatusOffline,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		// Two creates racing past the EXISTS check land here: the loser
		// hits the user_id unique index.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUserTaken
		}
		return err
	}
	r.Status = StatusOffline
	r.IsActive = true

	if r.Vehicle != nil {
		r.Vehicle.RiderID = r.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO vehicles (rider_id, type, brand, model, year, license_plate, color)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			r.ID, r.Vehicle.Type, r.Vehicle.Brand, r.Vehicle.Model,
			r.Vehicle.Year, r.Vehicle.LicensePlate, r.Vehicle.Color,
		).Scan(&r.Vehicle.ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Rider, error) {
	row := s.db.QueryRow(ctx, `SELECT`+riderColumns+riderFrom+` WHERE r.id = $1`, id)
	return scanRider(row)
}

type ListFilter struct {
	Status   *Status
	IsActive *bool
	Page     int
	Limit    int
}

// List returns a page of riders (newest first) and the total match count.
func (s *Store) List(ctx context.Context, f ListFilter) ([]*Rider, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 10
	}

	where := ` WHERE 1=1`
	args := []any{}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(` AND r.status = $%d`, len(args))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		where += fmt.Sprintf(` AND r.is_active = $%d`, len(args))
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM riders r`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := s.db.Query(ctx,
		`SELECT`+riderColumns+riderFrom+where+
			fmt.Sprintf(` ORDER BY r.created_at DESC, r.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	riders, err := collectRiders(rows)
	if err != nil {
		return nil, 0, err
	}
	return riders, total, nil
}

// Available returns assignable riders: IDLE and active, best rated first.
// Ties on rating break by ascending id so the order is stable.
func (s *Store) Available(ctx context.Context) ([]*Rider, error) {
	rows, err := s.db.Query(ctx,
		`SELECT`+riderColumns+riderFrom+`
		WHERE r.status = $1 AND r.is_active = true
		ORDER BY r.rating DESC NULLS LAST, r.id ASC`,
		StatusIdle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRiders(rows)
}

func collectRiders(rows pgx.Rows) ([]*Rider, error) {
	var out []*Rider
	for rows.Next() {
		r, err := scanRider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateStatus writes a new availability state, conditional on the status
// the caller observed. A write that loses the race (the assignment or
// completion transaction committed in between) affects zero rows and comes
// back as ErrConflict instead of stomping the concurrent state. Transition
// guards live in the service; dispatch bypasses this and mutates status
// inside its own transaction.
func (s *Store) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE riders SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM riders WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE riders SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetRating(ctx context.Context, id int64, rating float64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE riders SET rating = $2, updated_at = now() WHERE id = $1`, id, rating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertVehicle creates or replaces the rider's single vehicle record.
func (s *Store) UpsertVehicle(ctx context.Context, v *Vehicle) error {
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM riders WHERE id = $1)`, v.RiderID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return s.db.QueryRow(ctx, `
		INSERT INTO vehicles (rider_id, type, brand, model, year, license_plate, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (rider_id) DO UPDATE SET
			type = EXCLUDED.type,
			brand = EXCLUDED.brand,
			model = EXCLUDED.model,
			year = EXCLUDED.year,
			license_plate = EXCLUDED.license_plate,
			color = EXCLUDED.color
		RETURNING id`,
		v.RiderID, v.Type, v.Brand, v.Model, v.Year, v.LicensePlate, v.Color,
	).Scan(&v.ID)
}

// Delete hard-deletes a rider, permitted only with zero historical orders.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE rider_id = $1`, id).Scan(&orderCount)
	if err != nil {
		return err
	}
	if orderCount > 0 {
		return ErrHasOrders
	}

	if _, err := tx.Exec(ctx, `DELETE FROM rider_locations WHERE rider_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM rider_last_locations WHERE rider_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM vehicles WHERE rider_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM riders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
