// README: Location sample and history types.
package location

import "time"

// Sample is one position report from a rider device.
type Sample struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Battery    *int      `json:"battery,omitempty"`
	Source     *string   `json:"source,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// HistoryEntry is an append-only trajectory row: the positional subset of a
// sample plus an opaque sequential id.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	RiderID    int64     `json:"rider_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// HistoryFilter bounds a trajectory read. Limit defaults to 100 and is
// capped at 500 to keep scans finite.
type HistoryFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 500
)
