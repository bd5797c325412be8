// README: Rider service guards the availability state machine and profile updates.
package rider

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrStatusReserved rejects external attempts to set ON_DELIVERY: the
	// assignment transaction is the sole authority for that state.
	ErrStatusReserved = errors.New("status is managed by dispatch")
	ErrValidation     = errors.New("invalid rider input")
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	UserID        int64
	Phone         string
	LicenseNumber *string
	Vehicle       *Vehicle
}

// Create links an account identity to a new rider profile. Riders start
// OFFLINE and active.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Rider, error) {
	if cmd.UserID <= 0 {
		return nil, fmt.Errorf("%w: user_id required", ErrValidation)
	}
	if cmd.Phone == "" {
		return nil, fmt.Errorf("%w: phone required", ErrValidation)
	}
	if cmd.Vehicle != nil {
		if cmd.Vehicle.Type == "" {
			cmd.Vehicle.Type = VehicleMotorcycle
		}
		if cmd.Vehicle.LicensePlate == "" {
			return nil, fmt.Errorf("%w: vehicle license_plate required", ErrValidation)
		}
	}
	r := &Rider{
		UserID:        cmd.UserID,
		Phone:         cmd.Phone,
		LicenseNumber: cmd.LicenseNumber,
		Vehicle:       cmd.Vehicle,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Rider, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Rider, int, error) {
	if f.Status != nil && !f.Status.Known() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrValidation, *f.Status)
	}
	return s.store.List(ctx, f)
}

func (s *Service) Available(ctx context.Context) ([]*Rider, error) {
	return s.store.Available(ctx)
}

// SetStatus handles go-online/go-offline. ON_DELIVERY is reserved for the
// assignment transaction and rejected here regardless of the current state.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) (*Rider, error) {
	if !status.Known() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if status == StatusOnDelivery {
		return nil, ErrStatusReserved
	}
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// ON_DELIVERY -> IDLE is the completion transaction's transition; the
	// only external exit from a delivery is going offline.
	if current.Status == StatusOnDelivery && status == StatusIdle {
		return nil, ErrStatusReserved
	}
	if current.Status != status && !CanTransition(current.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrValidation, current.Status, status)
	}
	// The write is conditional on the status just read; a dispatch commit
	// in between turns this into ErrConflict rather than a stale stomp.
	if err := s.store.UpdateStatus(ctx, id, current.Status, status); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

// SetActive toggles the operator kill switch. It never touches status; the
// assignment guard consults it independently.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (*Rider, error) {
	if err := s.store.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

func (s *Service) SetRating(ctx context.Context, id int64, rating float64) (*Rider, error) {
	if rating < 0 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be within [0, 5]", ErrValidation)
	}
	if err := s.store.SetRating(ctx, id, rating); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

func (s *Service) PutVehicle(ctx context.Context, riderID int64, v Vehicle) (*Vehicle, error) {
	if v.Type == "" {
		v.Type = VehicleMotorcycle
	}
	if v.LicensePlate == "" {
		return nil, fmt.Errorf("%w: license_plate required", ErrValidation)
	}
	v.RiderID = riderID
	if err := s.store.UpsertVehicle(ctx, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}
