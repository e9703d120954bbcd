package booking

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// activeStatuses hold the room's slot; cancelled and completed release it.
var activeStatuses = []BookingStatus{StatusPending, StatusConfirmed}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Booking struct {
	ID            uuid.UUID     `json:"id"`
	RoomID        int64         `json:"room_id"`
	StudioID      int64         `json:"studio_id"`
	UserID        int64         `json:"user_id"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	TotalPrice    float64       `json:"total_price"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Notes         string        `json:"notes,omitempty"`
	Equipment     []Equipment   `json:"equipment"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty"`
}

// Equipment links an equipment item to a booking. Name and DailyRate are
// filled only when the booking is loaded with details.
type Equipment struct {
	EquipmentID int64   `json:"equipment_id"`
	Quantity    int     `json:"quantity"`
	Name        string  `json:"name,omitempty"`
	DailyRate   float64 `json:"daily_rate,omitempty"`
}

func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// IsActive reports whether the booking occupies its room.
func (b *Booking) IsActive() bool {
	return b.Status.IsActive()
}

func (b *Booking) EquipmentIDs() []int64 {
	ids := make([]int64, 0, len(b.Equipment))
	for _, e := range b.Equipment {
		ids = append(ids, e.EquipmentID)
	}
	return ids
}

// RoomSummary is the room view embedded in booking details.
type RoomSummary struct {
	ID           int64   `json:"id"`
	StudioID     int64   `json:"studio_id"`
	Name         string  `json:"name"`
	PricePerHour float64 `json:"price_per_hour"`
}

// Details is a booking together with its room and equipment descriptions.
type Details struct {
	Booking
	Room *RoomSummary `json:"room,omitempty"`
}

// Patch carries optional changes. A nil field is left untouched.
type Patch struct {
	StartTime     *time.Time
	EndTime       *time.Time
	Status        *BookingStatus
	PaymentStatus *PaymentStatus
	Notes         *string
}

func (p Patch) IsEmpty() bool {
	return p.StartTime == nil && p.EndTime == nil && p.Status == nil &&
		p.PaymentStatus == nil && p.Notes == nil
}

// CreateInput is the data a principal supplies to reserve a room.
type CreateInput struct {
	RoomID       int64
	StartTime    time.Time
	EndTime      time.Time
	Notes        string
	EquipmentIDs []int64
}
