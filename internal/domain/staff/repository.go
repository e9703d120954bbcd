package staff

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetAssignedStudio returns gorm.ErrRecordNotFound when the user has no assignment.
func (r *Repository) GetAssignedStudio(ctx context.Context, userID int64) (int64, error) {
	var a Assignment
	err := r.db.WithContext(ctx).
		Select("studio_id").
		Where("user_id = ?", userID).
		First(&a).Error
	if err != nil {
		return 0, err
	}
	return a.StudioID, nil
}

// Assign creates or moves the user's assignment.
func (r *Repository) Assign(ctx context.Context, userID, studioID int64) error {
	a := Assignment{UserID: userID, StudioID: studioID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"studio_id"}),
		}).
		Create(&a).Error
}
