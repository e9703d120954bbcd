package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiobooking/internal/clock"
	"studiobooking/internal/domain/catalog"
)

const tracerName = "studiobooking/internal/domain/booking"

type Service struct {
	repo      Repository
	rooms     ResourceDirectory
	equipment EquipmentDirectory
	policy    *Policy
	conflicts *ConflictDetector
	publisher EventPublisher
	clock     clock.Clock
	log       *zap.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func NewService(
	repo Repository,
	rooms ResourceDirectory,
	equipment EquipmentDirectory,
	staff StaffAssignments,
	opts ...Option,
) *Service {
	s := &Service{
		repo:      repo,
		rooms:     rooms,
		equipment: equipment,
		policy:    NewPolicy(staff),
		conflicts: NewConflictDetector(repo),
		publisher: noopPublisher{},
		clock:     clock.NewSystem(),
		log:       zap.NewNop(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy exposes the authorization policy so transports can scope streams.
func (s *Service) Policy() *Policy {
	return s.policy
}

func (s *Service) startSpan(ctx context.Context, name string, p Principal) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("principal.id", p.UserID),
		attribute.String("principal.role", string(p.Role)),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Create reserves a room for the principal. The booking starts pending with
// a pending payment.
func (s *Service) Create(ctx context.Context, p Principal, in CreateInput) (_ *Details, err error) {
	ctx, span := s.startSpan(ctx, "booking.Create", p)
	defer func() { endSpan(span, err) }()

	if err := s.policy.Authorize(ctx, p, ActionCreate, nil); err != nil {
		return nil, err
	}
	if in.RoomID <= 0 {
		return nil, validationError("room_id is required")
	}
	iv, err := NewInterval(in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}
	if err := validateEquipmentIDs(in.EquipmentIDs); err != nil {
		return nil, err
	}

	// Directory lookups run before the room lock so the locked section only
	// touches the bookings store.
	room, err := s.resolveRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	items, err := s.resolveEquipment(ctx, in.EquipmentIDs)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	b := &Booking{
		ID:            uuid.New(),
		RoomID:        room.ID,
		StudioID:      room.StudioID,
		UserID:        p.UserID,
		StartTime:     iv.Start,
		EndTime:       iv.End,
		TotalPrice:    ComputePrice(room.PricePerHour, iv, items),
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Notes:         in.Notes,
		Equipment:     make([]Equipment, 0, len(items)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, it := range items {
		b.Equipment = append(b.Equipment, Equipment{EquipmentID: it.ID, Quantity: 1})
	}
	span.SetAttributes(attribute.String("booking.id", b.ID.String()), attribute.Int64("room.id", room.ID))

	err = s.repo.WithResourceLock(ctx, room.ID, func(ctx context.Context) error {
		conflict, err := s.conflicts.HasConflict(ctx, room.ID, iv, uuid.Nil)
		if err != nil {
			return err
		}
		if conflict {
			return fmt.Errorf("%w: room %d is booked in that window", ErrConflict, room.ID)
		}
		return s.repo.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", b.ID.String()),
		zap.Int64("room_id", b.RoomID),
		zap.Int64("user_id", b.UserID),
		zap.Float64("total_price", b.TotalPrice),
	)
	s.publish(ctx, EventCreated, p, b)

	return newDetails(b, room, items), nil
}

// Update applies a partial change. Changing the window re-prices the booking
// and re-checks conflicts against everything but itself.
func (s *Service) Update(ctx context.Context, p Principal, id uuid.UUID, patch Patch) (_ *Booking, err error) {
	ctx, span := s.startSpan(ctx, "booking.Update", p)
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("booking.id", id.String()))

	return s.update(ctx, p, id, patch, nil)
}

// Cancel moves the booking to cancelled and records the reason.
func (s *Service) Cancel(ctx context.Context, p Principal, id uuid.UUID, reason string) (_ *Booking, err error) {
	ctx, span := s.startSpan(ctx, "booking.Cancel", p)
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("booking.id", id.String()))

	status := StatusCancelled
	return s.update(ctx, p, id, Patch{Status: &status}, &cancellation{reason: reason})
}

type cancellation struct {
	reason string
}

func (s *Service) update(ctx context.Context, p Principal, id uuid.UUID, patch Patch, cancel *cancellation) (*Booking, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	action := ActionUpdate
	if patch.Status != nil && *patch.Status == StatusCancelled {
		action = ActionCancel
	}

	if patch.Status != nil && !patch.Status.Valid() {
		return nil, validationError(fmt.Sprintf("unknown status %q", *patch.Status))
	}
	if patch.PaymentStatus != nil && !patch.PaymentStatus.Valid() {
		return nil, validationError(fmt.Sprintf("unknown payment_status %q", *patch.PaymentStatus))
	}
	if (patch.StartTime == nil) != (patch.EndTime == nil) {
		return nil, validationError("start_time and end_time must be changed together")
	}
	reschedule := patch.StartTime != nil
	var window Interval
	if reschedule {
		iv, err := NewInterval(*patch.StartTime, *patch.EndTime)
		if err != nil {
			return nil, err
		}
		window = iv
	}

	// The snapshot only locates the room to lock and fails fast on access.
	// Everything written is derived from the copy re-read under the lock.
	snapshot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	scope, err := s.policy.ActionScope(ctx, p, action)
	if err != nil {
		return nil, err
	}
	if err := scope.Permit(action, snapshot); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return snapshot, nil
	}

	// Room and equipment are fixed for the booking's lifetime, so they are
	// resolved before the lock.
	var (
		room  *catalog.Room
		items []catalog.Equipment
	)
	if reschedule {
		if room, err = s.resolveRoom(ctx, snapshot.RoomID); err != nil {
			return nil, err
		}
		if items, err = s.resolveEquipment(ctx, snapshot.EquipmentIDs()); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	var current, next Booking
	err = s.repo.WithResourceLock(ctx, snapshot.RoomID, func(ctx context.Context) error {
		locked, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := scope.Permit(action, locked); err != nil {
			return err
		}
		current, next = *locked, *locked

		if cancel != nil && current.Status == StatusCancelled {
			return fmt.Errorf("%w: booking is already cancelled", ErrInvalidStatusTransition)
		}
		if patch.Status != nil {
			status := *patch.Status
			if !current.Status.CanTransitionTo(status) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, status)
			}
			if status == StatusCancelled && current.Status != StatusCancelled {
				next.CancelledAt = &now
				if cancel != nil {
					next.CancellationReason = cancel.reason
				}
			}
			next.Status = status
		}
		if patch.PaymentStatus != nil {
			next.PaymentStatus = *patch.PaymentStatus
		}
		if patch.Notes != nil {
			next.Notes = *patch.Notes
		}
		if reschedule {
			next.StartTime = window.Start
			next.EndTime = window.End
			next.TotalPrice = ComputePrice(room.PricePerHour, window, items)
		}
		next.UpdatedAt = now

		if reschedule && next.IsActive() {
			conflict, err := s.conflicts.HasConflict(ctx, next.RoomID, next.Interval(), next.ID)
			if err != nil {
				return err
			}
			if conflict {
				return fmt.Errorf("%w: room %d is booked in that window", ErrConflict, next.RoomID)
			}
		}
		return s.repo.Update(ctx, &next)
	})
	if err != nil {
		return nil, err
	}

	eventType := EventUpdated
	if next.Status == StatusCancelled && current.Status != StatusCancelled {
		eventType = EventCancelled
	}
	s.log.Info("booking updated",
		zap.String("booking_id", next.ID.String()),
		zap.String("event", string(eventType)),
		zap.String("status", string(next.Status)),
		zap.Bool("rescheduled", reschedule),
	)
	s.publish(ctx, eventType, p, &next)

	return &next, nil
}

// Delete hard-deletes the booking and its equipment links.
func (s *Service) Delete(ctx context.Context, p Principal, id uuid.UUID) (err error) {
	ctx, span := s.startSpan(ctx, "booking.Delete", p)
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("booking.id", id.String()))

	if err := p.Validate(); err != nil {
		return err
	}
	snapshot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	scope, err := s.policy.ActionScope(ctx, p, ActionDelete)
	if err != nil {
		return err
	}
	if err := scope.Permit(ActionDelete, snapshot); err != nil {
		return err
	}

	var deleted Booking
	err = s.repo.WithResourceLock(ctx, snapshot.RoomID, func(ctx context.Context) error {
		locked, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := scope.Permit(ActionDelete, locked); err != nil {
			return err
		}
		deleted = *locked
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("booking deleted", zap.String("booking_id", id.String()), zap.Int64("actor_id", p.UserID))
	s.publish(ctx, EventDeleted, p, &deleted)
	return nil
}

// Get returns the booking with its room and equipment details.
func (s *Service) Get(ctx context.Context, p Principal, id uuid.UUID) (_ *Details, err error) {
	ctx, span := s.startSpan(ctx, "booking.Get", p)
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("booking.id", id.String()))

	if err := p.Validate(); err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, p, ActionRead, b); err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, b.RoomID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load room: %w", err)
	}
	items, err := s.equipment.GetByIDs(ctx, b.EquipmentIDs())
	if err != nil {
		return nil, fmt.Errorf("load equipment: %w", err)
	}
	return newDetails(b, room, items), nil
}

// List returns every booking the principal may see, ordered by start time.
func (s *Service) List(ctx context.Context, p Principal) (_ []Booking, err error) {
	ctx, span := s.startSpan(ctx, "booking.List", p)
	defer func() { endSpan(span, err) }()

	scope, err := s.policy.Scope(ctx, p)
	if err != nil {
		return nil, err
	}
	bookings, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("bookings.count", len(bookings)))
	return bookings, nil
}

func (s *Service) resolveRoom(ctx context.Context, roomID int64) (*catalog.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: room %d", ErrNotFound, roomID)
	}
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	return room, nil
}

// resolveEquipment fails with ErrNotFound unless every id resolves.
func (s *Service) resolveEquipment(ctx context.Context, ids []int64) ([]catalog.Equipment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	items, err := s.equipment.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load equipment: %w", err)
	}
	if len(items) != len(ids) {
		return nil, fmt.Errorf("%w: %d of %d equipment items", ErrNotFound, len(ids)-len(items), len(ids))
	}
	return items, nil
}

func validateEquipmentIDs(ids []int64) error {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return validationError("equipment ids must be positive")
		}
		if _, dup := seen[id]; dup {
			return validationError(fmt.Sprintf("duplicate equipment id %d", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, t EventType, p Principal, b *Booking) {
	e := Event{Type: t, Booking: *b, ActorID: p.UserID, OccurredAt: s.clock.Now()}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("publish booking event",
			zap.String("event", string(t)),
			zap.String("booking_id", b.ID.String()),
			zap.Error(err),
		)
	}
}

func newDetails(b *Booking, room *catalog.Room, items []catalog.Equipment) *Details {
	d := &Details{Booking: *b}
	d.Equipment = make([]Equipment, len(b.Equipment))
	copy(d.Equipment, b.Equipment)

	byID := make(map[int64]catalog.Equipment, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	for i := range d.Equipment {
		if it, ok := byID[d.Equipment[i].EquipmentID]; ok {
			d.Equipment[i].Name = it.Name
			d.Equipment[i].DailyRate = it.DailyRate
		}
	}
	if room != nil {
		d.Room = &RoomSummary{
			ID:           room.ID,
			StudioID:     room.StudioID,
			Name:         room.Name,
			PricePerHour: room.PricePerHour,
		}
	}
	return d
}
