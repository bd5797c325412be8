// README: Location service validates samples and drives the ingest pipeline.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"reparto/internal/observability"
)

var ErrValidation = errors.New("invalid location sample")

type Service struct {
	store  *Store
	logger *zap.Logger
}

func NewService(store *Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Result reports how a sample was applied. A stale sample leaves the last
// location untouched (Accepted=false) but is still appended to history.
type Result struct {
	Accepted bool   `json:"accepted"`
	Sample   Sample `json:"sample"`
}

func (s *Service) RecordSample(ctx context.Context, riderID int64, sample Sample) (*Result, error) {
	if sample.Lat < -90 || sample.Lat > 90 || sample.Lng < -180 || sample.Lng > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}
	if sample.Battery != nil && (*sample.Battery < 0 || *sample.Battery > 100) {
		return nil, fmt.Errorf("%w: battery must be within [0, 100]", ErrValidation)
	}
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = time.Now().UTC()
	}

	accepted, err := s.store.RecordSample(ctx, riderID, sample)
	if err != nil {
		return nil, err
	}
	if accepted {
		observability.LocationSamplesTotal.WithLabelValues("accepted").Inc()
		if err := s.store.SetGeo(ctx, riderID, sample.Lat, sample.Lng); err != nil {
			s.logger.Warn("geo mirror update failed",
				zap.Int64("rider_id", riderID), zap.Error(err))
		}
	} else {
		observability.LocationSamplesTotal.WithLabelValues("stale").Inc()
		s.logger.Debug("stale location sample kept in history only",
			zap.Int64("rider_id", riderID),
			zap.Time("recorded_at", sample.RecordedAt))
	}
	return &Result{Accepted: accepted, Sample: sample}, nil
}

func (s *Service) History(ctx context.Context, riderID int64, f HistoryFilter) ([]HistoryEntry, error) {
	return s.store.History(ctx, riderID, f)
}
