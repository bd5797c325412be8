package location

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reparto/internal/testdb"
)

func setupService(t *testing.T) (*Service, int64) {
	t.Helper()
	db := testdb.Connect(t)
	riderID := testdb.CreateRider(t, db, 1, "IDLE", true, nil)
	// Redis mirror is nil here: SetGeo is a no-op and the ingest contract
	// must hold without it.
	return NewService(NewStore(db, nil), nil), riderID
}

func TestRecordSampleUpdatesLastAndHistory(t *testing.T) {
	ctx := context.Background()
	svc, riderID := setupService(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := svc.RecordSample(ctx, riderID, Sample{Lat: 36.8402, Lng: -2.4681, RecordedAt: now})
	require.NoError(t, err)
	assert.True(t, res.Accepted)

	hist, err := svc.History(ctx, riderID, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, 36.8402, hist[0].Lat)
}

func TestRecordSampleStaleTimestampKeepsLastPointer(t *testing.T) {
	ctx := context.Background()
	svc, riderID := setupService(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := svc.RecordSample(ctx, riderID, Sample{Lat: 36.84, Lng: -2.46, RecordedAt: now})
	require.NoError(t, err)
	require.True(t, res.Accepted)

	// An older sample must not overwrite the pointer...
	stale, err := svc.RecordSample(ctx, riderID, Sample{Lat: 40.41, Lng: -3.70, RecordedAt: now.Add(-time.Minute)})
	require.NoError(t, err)
	assert.False(t, stale.Accepted)

	// ...but history keeps every sample regardless of arrival order.
	hist, err := svc.History(ctx, riderID, HistoryFilter{})
	require.NoError(t, err)
	assert.Len(t, hist, 2)
	assert.Equal(t, 36.84, hist[0].Lat, "newest first")
}

func TestHistoryOrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	svc, riderID := setupService(t)

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		_, err := svc.RecordSample(ctx, riderID, Sample{
			Lat:        36.84 + float64(i)*0.001,
			Lng:        -2.46,
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	hist, err := svc.History(ctx, riderID, HistoryFilter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.True(t, hist[0].RecordedAt.After(hist[1].RecordedAt))
	assert.True(t, hist[1].RecordedAt.After(hist[2].RecordedAt))

	from := base.Add(90 * time.Second)
	to := base.Add(210 * time.Second)
	windowed, err := svc.History(ctx, riderID, HistoryFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, windowed, 2)
}

func TestRecordSampleUnknownRider(t *testing.T) {
	ctx := context.Background()
	db := testdb.Connect(t)
	svc := NewService(NewStore(db, nil), nil)

	_, err := svc.RecordSample(ctx, 99999, Sample{Lat: 36.84, Lng: -2.46})
	assert.ErrorIs(t, err, ErrRiderNotFound)
}

func TestRecordSampleValidation(t *testing.T) {
	svc := NewService(nil, nil)

	_, err := svc.RecordSample(context.Background(), 1, Sample{Lat: 95, Lng: 0})
	assert.ErrorIs(t, err, ErrValidation)

	battery := 120
	_, err = svc.RecordSample(context.Background(), 1, Sample{Lat: 36.84, Lng: -2.46, Battery: &battery})
	assert.ErrorIs(t, err, ErrValidation)
}
