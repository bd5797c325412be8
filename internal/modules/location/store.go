// README: Location store backed by PostgreSQL plus a Redis GEO mirror.
package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// GeoKey is the Redis GEO set mirroring rider last positions.
const GeoKey = "geo:riders"

var ErrRiderNotFound = errors.New("rider not found")

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

// RecordSample upserts the rider's last location and appends to history as
// one transaction: both land or neither does. The upsert carries a
// monotonic-timestamp guard, so a stale sample (older than the stored
// pointer) is reported as not accepted while the history append still
// happens.
func (s *Store) RecordSample(ctx context.Context, riderID int64, sample Sample) (accepted bool, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM riders WHERE id = $1)`, riderID,
	).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrRiderNotFound
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO rider_last_locations (
			rider_id, lat, lng, speed, heading, accuracy, battery, source, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (rider_id) DO UPDATE SET
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			speed = EXCLUDED.speed,
			heading = EXCLUDED.heading,
			accuracy = EXCLUDED.accuracy,
			battery = EXCLUDED.battery,
			source = EXCLUDED.source,
			recorded_at = EXCLUDED.recorded_at
		WHERE rider_last_locations.recorded_at <= EXCLUDED.recorded_at`,
		riderID, sample.Lat, sample.Lng, sample.Speed, sample.Heading,
		sample.Accuracy, sample.Battery, sample.Source, sample.RecordedAt,
	)
	if err != nil {
		return false, err
	}
	accepted = tag.RowsAffected() == 1

	// History is append-only and tolerates out-of-order arrival.
	if _, err := tx.Exec(ctx, `
		INSERT INTO rider_locations (rider_id, lat, lng, speed, heading, accuracy, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		riderID, sample.Lat, sample.Lng, sample.Speed, sample.Heading,
		sample.Accuracy, sample.RecordedAt,
	); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return accepted, nil
}

// SetGeo mirrors an accepted position into the Redis GEO set. Best effort;
// callers log failures instead of failing the ingest.
func (s *Store) SetGeo(ctx context.Context, riderID int64, lat, lng float64) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.GeoAdd(ctx, GeoKey, &redis.GeoLocation{
		Name:      fmt.Sprintf("%d", riderID),
		Latitude:  lat,
		Longitude: lng,
	}).Err()
}

// History returns the rider's trajectory, newest first, bounded by the
// filter. A single snapshot read, not a restartable stream.
func (s *Store) History(ctx context.Context, riderID int64, f HistoryFilter) ([]HistoryEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	where := ` WHERE rider_id = $1`
	args := []any{riderID}
	if f.From != nil {
		args = append(args, *f.From)
		where += fmt.Sprintf(` AND recorded_at >= $%d`, len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += fmt.Sprintf(` AND recorded_at <= $%d`, len(args))
	}
	args = append(args, limit)

	rows, err := s.db.Query(ctx, `
		SELECT id, rider_id, lat, lng, speed, heading, accuracy, recorded_at
		FROM rider_locations`+where+
		fmt.Sprintf(` ORDER BY recorded_at DESC, id DESC LIMIT $%d`, len(args)),
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.RiderID, &e.Lat, &e.Lng, &e.Speed, &e.Heading, &e.Accuracy, &e.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
