package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reparto/internal/modules/order"
	"reparto/internal/modules/rider"
	"reparto/internal/testdb"
)

// Many riders race for the same pending order; exactly one assignment may
// commit.
func TestConcurrentAssignSameOrder(t *testing.T) {
	db := testdb.Connect(t)
	svc := NewService(NewStore(db, nil), order.NewStore(db), rider.NewStore(db), NearbyDefaults{}, nil)
	ctx := context.Background()

	const workers = 8
	orderID := testdb.CreatePendingOrder(t, db)
	riderIDs := make([]int64, workers)
	for i := range riderIDs {
		riderIDs[i] = testdb.CreateRider(t, db, int64(200+i), string(rider.StatusIdle), true, nil)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, rid := range riderIDs {
		wg.Add(1)
		go func(rid int64) {
			defer wg.Done()
			_, err := svc.Assign(ctx, orderID, rid)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !errors.Is(err, order.ErrInvalidState) {
				t.Errorf("unexpected error: %v", err)
			}
		}(rid)
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one assign must win")

	o, err := order.NewStore(db).Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusAssigned, o.Status)
	require.NotNil(t, o.RiderID)

	// Only the winning rider is on delivery.
	busy := 0
	for _, rid := range riderIDs {
		r, err := rider.NewStore(db).GetByID(ctx, rid)
		require.NoError(t, err)
		if r.Status == rider.StatusOnDelivery {
			busy++
			assert.Equal(t, rid, *o.RiderID)
		}
	}
	assert.Equal(t, 1, busy)
}

// Many pending orders race for the same rider; the rider ends up with
// exactly one.
func TestConcurrentAssignSameRider(t *testing.T) {
	db := testdb.Connect(t)
	svc := NewService(NewStore(db, nil), order.NewStore(db), rider.NewStore(db), NearbyDefaults{}, nil)
	ctx := context.Background()

	const workers = 8
	riderID := testdb.CreateRider(t, db, 300, string(rider.StatusIdle), true, nil)
	orderIDs := make([]int64, workers)
	for i := range orderIDs {
		orderIDs[i] = testdb.CreatePendingOrder(t, db)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, oid := range orderIDs {
		wg.Add(1)
		go func(oid int64) {
			defer wg.Done()
			_, err := svc.Assign(ctx, oid, riderID)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrRiderBusy) {
				t.Errorf("unexpected error: %v", err)
			}
		}(oid)
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "the rider can take exactly one order")

	assigned := 0
	for _, oid := range orderIDs {
		o, err := order.NewStore(db).Get(ctx, oid)
		require.NoError(t, err)
		if o.Status == order.StatusAssigned {
			assigned++
		} else {
			assert.Equal(t, order.StatusPending, o.Status)
			assert.Nil(t, o.RiderID)
		}
	}
	assert.Equal(t, 1, assigned)
}

// Availability writes racing the assignment must never resurrect IDLE: once
// the assignment commits, a stale go-online write loses instead of leaving
// the rider assignable with a live order.
func TestStatusWritesDuringAssign(t *testing.T) {
	db := testdb.Connect(t)
	svc := NewService(NewStore(db, nil), order.NewStore(db), rider.NewStore(db), NearbyDefaults{}, nil)
	riderSvc := rider.NewService(rider.NewStore(db))
	ctx := context.Background()

	riderID := testdb.CreateRider(t, db, 310, string(rider.StatusIdle), true, nil)
	orderID := testdb.CreatePendingOrder(t, db)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := svc.Assign(ctx, orderID, riderID); err != nil {
			t.Errorf("assign: %v", err)
		}
	}()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := riderSvc.SetStatus(ctx, riderID, rider.StatusIdle)
				switch {
				case err == nil,
					errors.Is(err, rider.ErrStatusReserved),
					errors.Is(err, rider.ErrConflict):
				default:
					t.Errorf("set status: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	r, err := rider.NewStore(db).GetByID(ctx, riderID)
	require.NoError(t, err)
	assert.Equal(t, rider.StatusOnDelivery, r.Status, "assignment state survives the writes")

	// With the rider still on delivery, a second order cannot land on them.
	secondOrder := testdb.CreatePendingOrder(t, db)
	_, err = svc.Assign(ctx, secondOrder, riderID)
	assert.ErrorIs(t, err, ErrRiderBusy)
}

// Assign and complete interleaved across several order/rider pairs keeps the
// books consistent: every delivered order has a counted completion.
func TestAssignCompleteInterleaved(t *testing.T) {
	db := testdb.Connect(t)
	svc := NewService(NewStore(db, nil), order.NewStore(db), rider.NewStore(db), NearbyDefaults{}, nil)
	ctx := context.Background()

	const pairs = 6
	var wg sync.WaitGroup
	for i := 0; i < pairs; i++ {
		rid := testdb.CreateRider(t, db, int64(400+i), string(rider.StatusIdle), true, nil)
		oid := testdb.CreatePendingOrder(t, db)
		wg.Add(1)
		go func(oid, rid int64) {
			defer wg.Done()
			if _, err := svc.Assign(ctx, oid, rid); err != nil {
				t.Errorf("assign: %v", err)
				return
			}
			if _, err := svc.Complete(ctx, rid, oid); err != nil {
				t.Errorf("complete: %v", err)
			}
		}(oid, rid)
	}
	wg.Wait()

	riders, err := rider.NewStore(db).Available(ctx)
	require.NoError(t, err)
	require.Len(t, riders, pairs, "all riders back to IDLE")
	for _, r := range riders {
		assert.Equal(t, 1, r.CompletedOrders)
	}
}
