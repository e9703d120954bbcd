package catalog

import (
	"context"

	"gorm.io/gorm"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// GetByID returns gorm.ErrRecordNotFound when the room does not exist.
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*Room, error) {
	var room Room
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) GetByStudioID(ctx context.Context, studioID int64) ([]Room, error) {
	var rooms []Room
	err := r.db.WithContext(ctx).
		Where("studio_id = ? AND is_active = ?", studioID, true).
		Order("id ASC").
		Find(&rooms).Error
	return rooms, err
}

func (r *RoomRepository) Create(ctx context.Context, room *Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

func (r *EquipmentRepository) Create(ctx context.Context, e *Equipment) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// GetByIDs returns the subset of ids that exist. Callers compare lengths to
// detect unresolvable ids.
func (r *EquipmentRepository) GetByIDs(ctx context.Context, ids []int64) ([]Equipment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []Equipment
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&items).Error
	return items, err
}
