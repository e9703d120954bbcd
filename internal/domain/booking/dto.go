package booking

import "time"

type CreateBookingRequest struct {
	RoomID       int64     `json:"room_id" validate:"required,gt=0"`
	StartTime    time.Time `json:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" validate:"required"`
	Notes        string    `json:"notes" validate:"max=2000"`
	EquipmentIDs []int64   `json:"equipment_ids" validate:"omitempty,dive,gt=0"`
}

func (r CreateBookingRequest) toInput() CreateInput {
	return CreateInput{
		RoomID:       r.RoomID,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Notes:        r.Notes,
		EquipmentIDs: r.EquipmentIDs,
	}
}

// UpdateBookingRequest fields are optional. An explicit empty notes value
// clears the notes.
type UpdateBookingRequest struct {
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	Status        *string    `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	PaymentStatus *string    `json:"payment_status" validate:"omitempty,oneof=pending partial paid refunded"`
	Notes         *string    `json:"notes" validate:"omitempty,max=2000"`
}

func (r UpdateBookingRequest) toPatch() Patch {
	p := Patch{
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Notes:     r.Notes,
	}
	if r.Status != nil {
		s := BookingStatus(*r.Status)
		p.Status = &s
	}
	if r.PaymentStatus != nil {
		ps := PaymentStatus(*r.PaymentStatus)
		p.PaymentStatus = &ps
	}
	return p
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type ListBookingsResponse struct {
	Bookings []Booking `json:"bookings"`
	Total    int       `json:"total"`
}

type DeleteBookingResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}
