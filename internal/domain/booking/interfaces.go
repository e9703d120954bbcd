package booking

import (
	"context"

	"github.com/google/uuid"

	"studiobooking/internal/domain/catalog"
)

// Repository persists bookings. Implementations must run everything inside
// WithResourceLock on one transaction, serialized per room.
type Repository interface {
	OverlapFinder
	WithResourceLock(ctx context.Context, roomID int64, fn func(ctx context.Context) error) error
	Create(ctx context.Context, b *Booking) error
	Update(ctx context.Context, b *Booking) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	List(ctx context.Context, scope Scope) ([]Booking, error)
}

// ResourceDirectory resolves rooms. Absence is gorm.ErrRecordNotFound.
type ResourceDirectory interface {
	GetByID(ctx context.Context, roomID int64) (*catalog.Room, error)
}

// EquipmentDirectory returns the subset of ids that resolve.
type EquipmentDirectory interface {
	GetByIDs(ctx context.Context, ids []int64) ([]catalog.Equipment, error)
}
