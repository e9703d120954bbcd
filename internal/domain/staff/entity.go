package staff

import "time"

// Assignment binds a staff user to the single studio they work at.
type Assignment struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"uniqueIndex"`
	StudioID  int64     `json:"studio_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

func (Assignment) TableName() string { return "staff_assignments" }
