package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

type bookingRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &bookingRepository{db: db}
}

type bookingModel struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	RoomID             int64      `gorm:"column:room_id;not null;index:idx_bookings_room_time,priority:1"`
	StudioID           int64      `gorm:"column:studio_id;not null;index"`
	UserID             int64      `gorm:"column:user_id;not null;index"`
	StartTime          time.Time  `gorm:"column:start_time;not null;index:idx_bookings_room_time,priority:2"`
	EndTime            time.Time  `gorm:"column:end_time;not null"`
	TotalPrice         float64    `gorm:"column:total_price;not null"`
	Status             string     `gorm:"column:status;size:16;not null"`
	PaymentStatus      string     `gorm:"column:payment_status;size:16;not null"`
	Notes              *string    `gorm:"column:notes"`
	CancellationReason *string    `gorm:"column:cancellation_reason"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`

	Equipment []bookingEquipmentModel `gorm:"foreignKey:BookingID"`
}

func (bookingModel) TableName() string { return "bookings" }

type bookingEquipmentModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	BookingID   uuid.UUID `gorm:"column:booking_id;type:uuid;not null;uniqueIndex:idx_booking_equipment,priority:1"`
	EquipmentID int64     `gorm:"column:equipment_id;not null;uniqueIndex:idx_booking_equipment,priority:2"`
	Quantity    int       `gorm:"column:quantity;not null;default:1"`
}

func (bookingEquipmentModel) TableName() string { return "booking_equipment" }

// Models lists booking tables for AutoMigrate.
func Models() []any {
	return []any{&bookingModel{}, &bookingEquipmentModel{}}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toDomain(m bookingModel) Booking {
	b := Booking{
		ID:                 m.ID,
		RoomID:             m.RoomID,
		StudioID:           m.StudioID,
		UserID:             m.UserID,
		StartTime:          m.StartTime.UTC(),
		EndTime:            m.EndTime.UTC(),
		TotalPrice:         m.TotalPrice,
		Status:             BookingStatus(m.Status),
		PaymentStatus:      PaymentStatus(m.PaymentStatus),
		Notes:              derefString(m.Notes),
		CancellationReason: derefString(m.CancellationReason),
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
		Equipment:          make([]Equipment, 0, len(m.Equipment)),
	}
	if m.CancelledAt != nil {
		t := m.CancelledAt.UTC()
		b.CancelledAt = &t
	}
	for _, e := range m.Equipment {
		b.Equipment = append(b.Equipment, Equipment{EquipmentID: e.EquipmentID, Quantity: e.Quantity})
	}
	return b
}

func toModel(b *Booking) bookingModel {
	return bookingModel{
		ID:                 b.ID,
		RoomID:             b.RoomID,
		StudioID:           b.StudioID,
		UserID:             b.UserID,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		TotalPrice:         b.TotalPrice,
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		Notes:              optionalString(b.Notes),
		CancellationReason: optionalString(b.CancellationReason),
		CancelledAt:        b.CancelledAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

type txKey struct{}

func txFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txKey{}).(*gorm.DB)
	return tx
}

// conn returns the transaction bound to ctx, or the base handle.
func (r *bookingRepository) conn(ctx context.Context) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *bookingRepository) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if tx := txFromContext(ctx); tx != nil {
		return fn(tx)
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

// WithResourceLock runs fn in a transaction holding a row lock on the room.
// Nested calls reuse the outer transaction.
func (r *bookingRepository) WithResourceLock(ctx context.Context, roomID int64, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked struct{ ID int64 }
		err := tx.Table("rooms").
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", roomID).
			Take(&locked).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: room %d", ErrNotFound, roomID)
		}
		if err != nil {
			return fmt.Errorf("lock room: %w", err)
		}
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (r *bookingRepository) FindOverlapping(ctx context.Context, roomID int64, iv Interval, exclude uuid.UUID) ([]Booking, error) {
	q := r.conn(ctx).
		Where("room_id = ?", roomID).
		Where("status IN ?", activeStatusStrings()).
		Where("start_time <= ? AND end_time >= ?", iv.End, iv.Start)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}

	var models []bookingModel
	if err := q.Order("start_time ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find overlapping bookings: %w", err)
	}

	out := make([]Booking, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *Booking) error {
	m := toModel(b)
	err := r.inTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&m).Error; err != nil {
			return err
		}
		if len(b.Equipment) == 0 {
			return nil
		}
		links := make([]bookingEquipmentModel, 0, len(b.Equipment))
		for _, e := range b.Equipment {
			links = append(links, bookingEquipmentModel{
				BookingID:   b.ID,
				EquipmentID: e.EquipmentID,
				Quantity:    e.Quantity,
			})
		}
		return tx.Create(&links).Error
	})
	return translateError(err)
}

func (r *bookingRepository) Update(ctx context.Context, b *Booking) error {
	m := toModel(b)
	res := r.conn(ctx).
		Model(&bookingModel{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"start_time":          m.StartTime,
			"end_time":            m.EndTime,
			"total_price":         m.TotalPrice,
			"status":              m.Status,
			"payment_status":      m.PaymentStatus,
			"notes":               m.Notes,
			"cancellation_reason": m.CancellationReason,
			"cancelled_at":        m.CancelledAt,
			"updated_at":          m.UpdatedAt,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes equipment links before the booking itself.
func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.inTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("booking_id = ?", id).Delete(&bookingEquipmentModel{}).Error; err != nil {
			return fmt.Errorf("delete booking equipment: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&bookingModel{})
		if res.Error != nil {
			return fmt.Errorf("delete booking: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetByID locks the booking row when called inside WithResourceLock.
func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	q := r.conn(ctx)
	if txFromContext(ctx) != nil {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var m bookingModel
	err := q.
		Preload("Equipment", func(db *gorm.DB) *gorm.DB { return db.Order("equipment_id ASC") }).
		Where("id = ?", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b := toDomain(m)
	return &b, nil
}

// List returns the bookings visible in scope ordered by start time.
func (r *bookingRepository) List(ctx context.Context, scope Scope) ([]Booking, error) {
	q := r.conn(ctx).
		Preload("Equipment", func(db *gorm.DB) *gorm.DB { return db.Order("equipment_id ASC") })

	switch scope.Kind {
	case ScopeAll:
	case ScopeStudio:
		q = q.Where("studio_id = ?", scope.StudioID)
	case ScopeOwn:
		q = q.Where("user_id = ?", scope.UserID)
	default:
		return nil, fmt.Errorf("%w: unknown scope", ErrForbidden)
	}

	var models []bookingModel
	if err := q.Order("start_time ASC, created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]Booking, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func activeStatusStrings() []string {
	out := make([]string, 0, len(activeStatuses))
	for _, s := range activeStatuses {
		out = append(out, string(s))
	}
	return out
}

// translateError maps PostgreSQL constraint violations onto domain errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgUniqueViolation:
			return fmt.Errorf("%w: duplicate %s", ErrValidation, pgErr.ConstraintName)
		}
	}
	return err
}
