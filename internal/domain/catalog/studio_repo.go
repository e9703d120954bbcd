package catalog

import (
	"context"

	"gorm.io/gorm"
)

type StudioRepository struct {
	db *gorm.DB
}

func NewStudioRepository(db *gorm.DB) *StudioRepository {
	return &StudioRepository{db: db}
}

func (r *StudioRepository) GetByID(ctx context.Context, id int64) (*Studio, error) {
	var studio Studio
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&studio).Error
	if err != nil {
		return nil, err
	}
	return &studio, nil
}

func (r *StudioRepository) Create(ctx context.Context, s *Studio) error {
	return r.db.WithContext(ctx).Create(s).Error
}
