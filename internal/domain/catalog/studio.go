package catalog

import (
	"time"
)

type Studio struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	OwnerID   int64      `json:"owner_id"`
	Name      string     `json:"name"`
	Address   string     `json:"address,omitempty"`
	City      string     `json:"city,omitempty"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relations (loaded separately)
	Rooms []Room `json:"rooms,omitempty" gorm:"foreignKey:StudioID"`
}

func (Studio) TableName() string { return "studios" }

// Room is a bookable resource. PricePerHour is the hourly rate used for pricing.
type Room struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	StudioID     int64     `json:"studio_id" gorm:"index"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Capacity     int       `json:"capacity"`
	PricePerHour float64   `json:"price_per_hour"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Room) TableName() string { return "rooms" }

// Equipment is an add-on item rented per booking for a flat daily rate.
type Equipment struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	StudioID  int64     `json:"studio_id" gorm:"index"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	DailyRate float64   `json:"daily_rate"`
	CreatedAt time.Time `json:"created_at"`
}

func (Equipment) TableName() string { return "equipment" }

// Models lists catalog tables for AutoMigrate.
func Models() []any {
	return []any{&Studio{}, &Room{}, &Equipment{}}
}
