package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Interval is a closed range of UTC instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates and normalizes a requested booking window.
func NewInterval(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, validationError("start_time and end_time are required")
	}
	if !end.After(start) {
		return Interval{}, validationError("end_time must be after start_time")
	}
	return Interval{Start: start.UTC(), End: end.UTC()}, nil
}

// Overlaps uses inclusive bounds, so intervals that only touch at an
// endpoint still overlap.
func (i Interval) Overlaps(o Interval) bool {
	return !i.Start.After(o.End) && !o.Start.After(i.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// OverlapFinder returns candidate bookings on a room whose stored window may
// intersect iv. Implementations may over-select.
type OverlapFinder interface {
	FindOverlapping(ctx context.Context, roomID int64, iv Interval, exclude uuid.UUID) ([]Booking, error)
}

type ConflictDetector struct {
	finder OverlapFinder
}

func NewConflictDetector(finder OverlapFinder) *ConflictDetector {
	return &ConflictDetector{finder: finder}
}

// HasConflict reports whether an active booking on roomID other than exclude
// overlaps iv. Pass uuid.Nil to exclude nothing.
func (d *ConflictDetector) HasConflict(ctx context.Context, roomID int64, iv Interval, exclude uuid.UUID) (bool, error) {
	candidates, err := d.finder.FindOverlapping(ctx, roomID, iv, exclude)
	if err != nil {
		return false, err
	}
	for i := range candidates {
		c := &candidates[i]
		if c.RoomID != roomID || !c.IsActive() {
			continue
		}
		if exclude != uuid.Nil && c.ID == exclude {
			continue
		}
		if c.Interval().Overlaps(iv) {
			return true, nil
		}
	}
	return false, nil
}
