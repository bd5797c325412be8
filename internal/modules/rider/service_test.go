package rider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reparto/internal/testdb"
)

func TestCreateAndGet(t *testing.T) {
	db := testdb.Connect(t)
	svc := NewService(NewStore(db))
	ctx := context.Background()

	plate := "0001ABC"
	r, err := svc.Create(ctx, CreateCommand{
		UserID: 500,
		Phone:  "+34600000001",
		Vehicle: &Vehicle{
			Type:         VehicleMotorcycle,
			LicensePlate: plate,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, r.Status, "riders start offline")
	assert.True(t, r.IsActive)

	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Vehicle)
	assert.Equal(t, plate, got.Vehicle.LicensePlate)
	assert.Equal(t, 0, got.OrderCount)

	// One account maps to at most one rider.
	_, err = svc.Create(ctx, CreateCommand{UserID: 500, Phone: "+34600000002"})
	assert.ErrorIs(t, err, ErrUserTaken)
}

// Several creates race for the same account; one rider profile comes out,
// every loser sees the taken-user error rather than a raw constraint
// violation.
func TestConcurrentCreateSameUser(t *testing.T) {
	db := testdb.Connect(t)
	svc := NewService(NewStore(db))
	ctx := context.Background()

	const workers = 6
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(ctx, CreateCommand{
				UserID: 505,
				Phone:  fmt.Sprintf("+3460000%04d", i),
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrUserTaken) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one create must win")

	_, total, err := svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(NewStore(nil))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCommand{Phone: "+34600000001"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, CreateCommand{UserID: 1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, CreateCommand{UserID: 1, Phone: "+34600", Vehicle: &Vehicle{}})
	assert.ErrorIs(t, err, ErrValidation, "vehicle without plate")
}

func TestSetStatusTransitions(t *testing.T) {
	db := testdb.Connect(t)
	svc := NewService(NewStore(db))
	ctx := context.Background()

	id := testdb.CreateRider(t, db, 510, string(StatusOffline), true, nil)

	r, err := svc.SetStatus(ctx, id, StatusIdle)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, r.Status)

	// Same-status is a no-op, not an error.
	r, err = svc.SetStatus(ctx, id, StatusIdle)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, r.Status)

	r, err = svc.SetStatus(ctx, id, StatusOffline)
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, r.Status)

	_, err = svc.SetStatus(ctx, id, StatusOnDelivery)
	assert.ErrorIs(t, err, ErrStatusReserved)

	_, err = svc.SetStatus(ctx, id, "SLEEPING")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SetStatus(ctx, 999999, StatusIdle)
	assert.ErrorIs(t, err, ErrNotFound)

	// While on a delivery the only external exit is OFFLINE; returning to
	// IDLE belongs to the completion transaction.
	onDelivery := testdb.CreateRider(t, db, 511, string(StatusOnDelivery), true, nil)
	_, err = svc.SetStatus(ctx, onDelivery, StatusIdle)
	assert.ErrorIs(t, err, ErrStatusReserved)

	r, err = svc.SetStatus(ctx, onDelivery, StatusOffline)
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, r.Status)
}

func TestUpdateStatusStaleWriteConflicts(t *testing.T) {
	db := testdb.Connect(t)
	store := NewStore(db)
	ctx := context.Background()

	id := testdb.CreateRider(t, db, 512, string(StatusIdle), true, nil)

	// A writer that observed IDLE loses once the row moves on; its write
	// must affect nothing instead of stomping the newer state.
	require.NoError(t, store.UpdateStatus(ctx, id, StatusIdle, StatusOffline))

	err := store.UpdateStatus(ctx, id, StatusIdle, StatusIdle)
	assert.ErrorIs(t, err, ErrConflict)

	r, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, r.Status, "stale write left no trace")

	err = store.UpdateStatus(ctx, 999999, StatusIdle, StatusOffline)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvailableOrderingAndFilter(t *testing.T) {
	db := testdb.Connect(t)
	svc := NewService(NewStore(db))
	ctx := context.Background()

	mid := 4.0
	top := 4.8
	unrated := testdb.CreateRider(t, db, 520, string(StatusIdle), true, nil)
	second := testdb.CreateRider(t, db, 521, string(StatusIdle), true, &mid)
	first := testdb.CreateRider(t, db, 522, string(StatusIdle), true, &top)
	testdb.CreateRider(t, db, 523, string(StatusOffline), true, &top)
	testdb.CreateRider(t, db, 524, string(StatusIdle), false, &top)

	riders, err := svc.Available(ctx)
	require.NoError(t, err)
	require.Len(t, riders, 3)
	assert.Equal(t, first, riders[0].ID, "highest rating first")
	assert.Equal(t, second, riders[1].ID)
	assert.Equal(t, unrated, riders[2].ID, "nulls last")
}

func TestSetRatingBounds(t *testing.T) {
	db := testdb.Connect(t)
	svc := NewService(NewStore(db))
	ctx := context.Background()

	id := testdb.CreateRider(t, db, 530, string(StatusIdle), true, nil)

	r, err := svc.SetRating(ctx, id, 4.5)
	require.NoError(t, err)
	require.NotNil(t, r.Rating)
	assert.Equal(t, 4.5, *r.Rating)

	_, err = svc.SetRating(ctx, id, 5.1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SetRating(ctx, id, -0.1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPutVehicleUpsert(t *testing.T) {
	db := testdb.Connect(t)
	svc := NewService(NewStore(db))
	ctx := context.Background()

	id := testdb.CreateRider(t, db, 540, string(StatusIdle), true, nil)

	v, err := svc.PutVehicle(ctx, id, Vehicle{LicensePlate: "1111BBB"})
	require.NoError(t, err)
	assert.Equal(t, VehicleMotorcycle, v.Type, "type defaults")

	v, err = svc.PutVehicle(ctx, id, Vehicle{Type: VehicleBicycle, LicensePlate: "2222CCC"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Vehicle)
	assert.Equal(t, VehicleBicycle, got.Vehicle.Type)
	assert.Equal(t, "2222CCC", got.Vehicle.LicensePlate, "second put replaces, not adds")

	_, err = svc.PutVehicle(ctx, 999999, Vehicle{LicensePlate: "3333DDD"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteGuardedByOrders(t *testing.T) {
	db := testdb.Connect(t)
	svc := NewService(NewStore(db))
	ctx := context.Background()

	free := testdb.CreateRider(t, db, 550, string(StatusIdle), true, nil)
	busyRider := testdb.CreateRider(t, db, 551, string(StatusIdle), true, nil)

	orderID := testdb.CreatePendingOrder(t, db)
	_, err := db.Exec(ctx, `UPDATE orders SET rider_id = $1 WHERE id = $2`, busyRider, orderID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, free))
	_, err = svc.Get(ctx, free)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(ctx, busyRider)
	assert.ErrorIs(t, err, ErrHasOrders)

	err = svc.Delete(ctx, 999999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFilters(t *testing.T) {
	db := testdb.Connect(t)
	svc := NewService(NewStore(db))
	ctx := context.Background()

	testdb.CreateRider(t, db, 560, string(StatusIdle), true, nil)
	testdb.CreateRider(t, db, 561, string(StatusOffline), true, nil)
	testdb.CreateRider(t, db, 562, string(StatusIdle), false, nil)

	idle := StatusIdle
	riders, total, err := svc.List(ctx, ListFilter{Status: &idle})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, riders, 2)

	active := true
	riders, total, err = svc.List(ctx, ListFilter{Status: &idle, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, riders, 1)

	bad := Status("SLEEPING")
	_, _, err = svc.List(ctx, ListFilter{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)
}
